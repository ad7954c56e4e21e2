package rest

type Key string

const (
	UserKey     Key = "CURRENT_USER"
	ClientIPKey Key = "CLIENT_IP"
)
