package message

import (
	"testing"

	"github.com/madbomber/smart-message-sub002/pkg/test"
)

type RegistrySuite struct {
	test.Suite
}

func TestRegistrySuite(t *testing.T) {
	test.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) TestRegisterAndDescribe() {
	r := NewRegistry()
	desc := &ClassDescriptor{Name: "Ping", Version: 1}
	r.Register(desc)

	got, err := r.Describe("Ping")
	s.NoError(err)
	s.Same(desc, got)
}

func (s *RegistrySuite) TestDescribeUnknownClass() {
	r := NewRegistry()
	_, err := r.Describe("Missing")
	s.Error(err)
}
