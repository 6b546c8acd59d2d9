package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"taskmanager/internal/core/model/response"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerSuite struct {
	suite.Suite
	app *testApp
}

func (s *AuthHandlerSuite) SetupTest() {
	s.app = newTestApp()
}

func TestAuthHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(AuthHandlerSuite))
}

func errorOf(body []byte) response.ErrorResponse {
	data := response.ErrorResponse{}
	json.Unmarshal(body, &data)
	return data
}

func (s *AuthHandlerSuite) TestSignUpUserSuccess() {
	rr := s.app.do("POST", "/signup", `{"name":"Eu","email":"Eu@Test.com","password":"12345678"}`, "")

	Expect(rr.Code).To(Equal(http.StatusCreated))

	session := decode[response.SessionResponse](rr)
	Expect(session.User.Email).To(Equal("eu@test.com"))
	Expect(session.AccessToken).ToNot(BeEmpty())
	Expect(session.RefreshToken).ToNot(BeEmpty())
	Expect(session.TokenType).To(Equal("Bearer"))
}

func (s *AuthHandlerSuite) TestSignUpUserValidationError() {
	rr := s.app.do("POST", "/signup", `{"email": "invalid-email", "password": "123"}`, "")

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	data := errorOf(rr.Body.Bytes())
	Expect(data.Error.Code).To(Equal("VALIDATION_ERROR"))
	Expect(len(data.Error.Errors)).To(Equal(3))
}

func (s *AuthHandlerSuite) TestSignUpMalformedBody() {
	rr := s.app.do("POST", "/signup", `{"email":`, "")

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(errorOf(rr.Body.Bytes()).Error.Code).To(Equal("VALIDATION_ERROR"))
}

func (s *AuthHandlerSuite) TestSignUpConflict() {
	s.app.signUp("Ana", "ana@example.com")

	rr := s.app.do("POST", "/signup", `{"name":"Ana","email":"ana@example.com","password":"12345678"}`, "")

	Expect(rr.Code).To(Equal(http.StatusConflict))

	data := errorOf(rr.Body.Bytes())
	Expect(data.Error.Code).To(Equal("CONFLICT"))
	Expect(data.Error.Errors[0].Field).To(Equal("email"))
	Expect(data.Error.Errors[0].Message).To(Equal("already exists: user already exists"))
}

func (s *AuthHandlerSuite) TestAuthUserSuccess() {
	s.app.signUp("Test", "test@example.com")

	rr := s.app.do("POST", "/auth", `{"email": "test@example.com", "password": "12345678"}`, "")

	Expect(rr.Code).To(Equal(http.StatusOK))

	session := decode[response.SessionResponse](rr)
	Expect(session.AccessToken).ToNot(BeEmpty())
	Expect(session.RefreshToken).ToNot(BeEmpty())
	Expect(session.User.Name).To(Equal("Test"))
}

func (s *AuthHandlerSuite) TestAuthUserInvalidCredentials() {
	rr := s.app.do("POST", "/auth", `{"email": "test@example.com", "password": "wrongpassword"}`, "")

	Expect(rr.Code).To(Equal(http.StatusUnauthorized))

	data := errorOf(rr.Body.Bytes())
	Expect(data.Error.Code).To(Equal("UNAUTHORIZED"))
	Expect(data.Error.Errors[0].Message).To(Equal("Invalid email or password"))
}

func (s *AuthHandlerSuite) TestRefresh() {
	s.app.do("POST", "/signup", `{"name":"Ref","email":"ref@example.com","password":"12345678"}`, "")
	login := decode[response.SessionResponse](s.app.do("POST", "/auth", `{"email":"ref@example.com","password":"12345678"}`, ""))

	rr := s.app.do("POST", "/auth/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`, "")

	Expect(rr.Code).To(Equal(http.StatusOK))
	refreshed := decode[response.SessionResponse](rr)
	Expect(refreshed.AccessToken).ToNot(BeEmpty())

	rr = s.app.do("POST", "/auth/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`, "")
	Expect(rr.Code).To(Equal(http.StatusUnauthorized))
}

func (s *AuthHandlerSuite) TestRefresh_MissingToken() {
	rr := s.app.do("POST", "/auth/refresh", `{}`, "")

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(errorOf(rr.Body.Bytes()).Error.Errors[0].Field).To(Equal("refresh_token"))
}

func (s *AuthHandlerSuite) TestLogout() {
	token := s.app.signUp("Out", "out@example.com")

	Expect(s.app.do("GET", "/me", "", token).Code).To(Equal(http.StatusOK))

	rr := s.app.do("POST", "/logout", "", token)
	Expect(rr.Code).To(Equal(http.StatusOK))

	rr = s.app.do("GET", "/me", "", token)
	Expect(rr.Code).To(Equal(http.StatusUnauthorized))
	Expect(errorOf(rr.Body.Bytes()).Error.Errors[0].Message).To(ContainSubstring("session revoked"))
}
