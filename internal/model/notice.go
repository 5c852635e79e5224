package model

import "time"

// NoticeLevel is the severity of a user-visible notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a message meant for the person using the storefront.
type Notice struct {
	Level   NoticeLevel
	Message string
	At      time.Time
}
