package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockResetter struct {
	mock.Mock
}

func (m *mockResetter) ResetPasswordWithToken(token, password string) ActionResult {
	return m.Called(token, password).Get(0).(ActionResult)
}

func TestResetPasswordActionShortPassword(t *testing.T) {
	resetter := new(mockResetter)
	action := NewResetPasswordAction(resetter)

	res := action.Execute(ResetPasswordInput{Password: "abc", ConfirmPassword: "abc", Token: "tok"})

	assert.False(t, res.Success)
	assert.Equal(t, "Invalid input", res.Message)
	assert.Equal(t, []string{"Password must be at least 6 characters"}, res.FieldErrors["password"])
	resetter.AssertNotCalled(t, "ResetPasswordWithToken", mock.Anything, mock.Anything)
}

func TestResetPasswordActionMismatch(t *testing.T) {
	resetter := new(mockResetter)
	action := NewResetPasswordAction(resetter)

	res := action.Execute(ResetPasswordInput{Password: "secret1", ConfirmPassword: "secret2", Token: "tok"})

	assert.False(t, res.Success)
	assert.Equal(t, []string{"Passwords do not match"}, res.FieldErrors["confirmPassword"])
	assert.NotContains(t, res.FieldErrors, "password")
	resetter.AssertNotCalled(t, "ResetPasswordWithToken", mock.Anything, mock.Anything)
}

func TestResetPasswordActionMissingToken(t *testing.T) {
	resetter := new(mockResetter)
	action := NewResetPasswordAction(resetter)

	res := action.Execute(ResetPasswordInput{Password: "secret1", ConfirmPassword: "secret1"})

	assert.False(t, res.Success)
	assert.Equal(t, []string{"Token is required"}, res.FieldErrors["token"])
	resetter.AssertNotCalled(t, "ResetPasswordWithToken", mock.Anything, mock.Anything)
}

func TestResetPasswordActionReportsAllFields(t *testing.T) {
	action := NewResetPasswordAction(new(mockResetter))

	res := action.Execute(ResetPasswordInput{Password: "abc", ConfirmPassword: "xyz"})

	assert.Len(t, res.FieldErrors, 3)
	assert.Contains(t, res.FieldErrors, "password")
	assert.Contains(t, res.FieldErrors, "confirmPassword")
	assert.Contains(t, res.FieldErrors, "token")
}

func TestResetPasswordActionDelegates(t *testing.T) {
	for _, want := range []ActionResult{
		{Success: true, Message: "Password has been reset"},
		{Success: false, Message: "Invalid or expired reset token"},
	} {
		resetter := new(mockResetter)
		resetter.On("ResetPasswordWithToken", "tok-123", "secret1").Return(want).Once()
		action := NewResetPasswordAction(resetter)

		got := action.Execute(ResetPasswordInput{Password: "secret1", ConfirmPassword: "secret1", Token: "tok-123"})

		assert.Equal(t, want, got)
		resetter.AssertNumberOfCalls(t, "ResetPasswordWithToken", 1)
	}
}
