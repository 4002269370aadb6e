package models

import "errors"

// ErrUserNotFound пользователь с данным pi_uid отсутствует в хранилище.
var ErrUserNotFound = errors.New("user not found")
