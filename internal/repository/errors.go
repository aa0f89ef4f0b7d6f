package repository

import "errors"

var ErrNotFound = errors.New("запись не найдена")
var ErrDuplicate = errors.New("запись уже существует")
var ErrVersionConflict = errors.New("конфликт версий")
