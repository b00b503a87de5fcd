package config

import "time"

// TLS modes understood by the SMTP transport.
const (
	MailTLSAuto = "auto"
	MailTLSSSL  = "ssl"
	MailTLSNone = "none"
)

// Mail holds the outgoing SMTP transport settings.
type Mail struct {
	Host               string
	Port               int
	User               string
	Password           string
	From               string
	FromName           string
	TLSMode            string // auto, ssl or none
	InsecureSkipVerify bool
	Timeout            time.Duration
}
