package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// FlexString 后端可能以字符串或数字返回的字段（年龄、出生日期），统一按文本处理
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var v string
		if err := sonic.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("flex string: unsupported value %s", data)
		}
		*s = FlexString(data)
	}
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// ContactName 姓名，线上格式为 name.first / name.last
type ContactName struct {
	First string `json:"first"`
	Last  string `json:"last,omitempty"`
}

// Contact 学生/联系人记录，ID 由后端分配
type Contact struct {
	ID        string      `json:"_id,omitempty"`
	Name      ContactName `json:"name"`
	Phone     string      `json:"phone"`
	Email     string      `json:"email"`
	BirthDate FlexString  `json:"fnacimiento,omitempty"`
	Age       FlexString  `json:"edad,omitempty"`
	CreatedAt *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

// IsNew 没有 ID 的记录尚未持久化
func (c Contact) IsNew() bool {
	return c.ID == ""
}

func (c Contact) FullName() string {
	return strings.TrimSpace(c.Name.First + " " + c.Name.Last)
}

// ContactPatch PATCH 请求体：可选字段始终发送，空串表示清空
type ContactPatch struct {
	Name struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	BirthDate string `json:"fnacimiento"`
	Age       string `json:"edad"`
}

func (c Contact) Patch() ContactPatch {
	var p ContactPatch
	p.Name.First = c.Name.First
	p.Name.Last = c.Name.Last
	p.Phone = c.Phone
	p.Email = c.Email
	p.BirthDate = string(c.BirthDate)
	p.Age = string(c.Age)
	return p
}

// ContactPage 后端分页列表结构
type ContactPage struct {
	Total int       `json:"total"`
	Limit int       `json:"limit"`
	Skip  int       `json:"skip"`
	Data  []Contact `json:"data"`
}
