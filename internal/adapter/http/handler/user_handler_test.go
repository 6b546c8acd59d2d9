package handler

import (
	"net/http"
	"testing"

	"taskmanager/internal/core/model/response"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
)

type UserHandlerSuite struct {
	suite.Suite
	app *testApp
}

func (s *UserHandlerSuite) SetupTest() {
	s.app = newTestApp()
}

func TestUserHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(UserHandlerSuite))
}

func (s *UserHandlerSuite) TestMe() {
	token := s.app.signUp("maria", "maria@example.com")

	rr := s.app.do("GET", "/me", "", token)

	Expect(rr.Code).To(Equal(http.StatusOK))

	profile := decode[response.ProfileResponse](rr)
	Expect(profile.Name).To(Equal("maria"))
	Expect(profile.Email).To(Equal("maria@example.com"))
	Expect(profile.Initial).To(Equal("M"))
	Expect(profile.CreatedAt).ToNot(BeZero())
}

func (s *UserHandlerSuite) TestMe_Unauthorized() {
	rr := s.app.do("GET", "/me", "", "not-a-token")

	Expect(rr.Code).To(Equal(http.StatusUnauthorized))
}
