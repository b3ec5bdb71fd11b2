package model

import "errors"

// ErrNotFound 按 ID 查询的实体不存在
var ErrNotFound = errors.New("not found")
