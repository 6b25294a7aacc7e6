// Package dto はアカウントページに送信されるフォームを定義します。
package dto

// LoginForm は /login に送信されるフォームです。
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// SignupForm は /account/signup に送信されるフォームです。
type SignupForm struct {
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
	Name            string `form:"name"`
	Surname         string `form:"surname"`
}

// ForgotForm は /account/forgot に送信されるフォームです。
type ForgotForm struct {
	Email string `form:"email"`
}

// ResetForm は /reset に送信されるフォームです。
type ResetForm struct {
	Token           string `form:"token"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
}
