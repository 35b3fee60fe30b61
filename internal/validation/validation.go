// Package validation содержит функции валидации входных данных.
package validation

import "errors"

// ErrMissingFields возвращается, если обязательные поля запроса не заполнены.
var ErrMissingFields = errors.New("all fields are required")

// CheckRegistration проверяет, что все поля запроса регистрации заполнены.
func CheckRegistration(username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return ErrMissingFields
	}
	return nil
}
