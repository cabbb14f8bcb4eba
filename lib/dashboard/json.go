package dashboard

import (
	"github.com/gravitational/trace"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigFastest

func marshalProfile(user *User) ([]byte, error) {
	data, err := jsonAPI.Marshal(user)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return data, nil
}

func unmarshalProfile(data []byte) (*User, error) {
	var user User
	if err := jsonAPI.Unmarshal(data, &user); err != nil {
		return nil, trace.Wrap(err)
	}
	return &user, nil
}
