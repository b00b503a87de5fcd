package ajax

// Messages returned in the data field of failed or successful responses.
const (
	MsgMissingParameters       = "Missing required parameters."
	MsgInvalidToken            = "Invalid security token."
	MsgInsufficientPermissions = "Insufficient permissions"
	MsgSaved                   = "Email address(es) and custom message saved successfully."
	MsgSaveFailed              = "Could not save the settings. Check server logs for details."
	MsgSent                    = "Notification email sent successfully using the latest data."
	MsgSendFailed              = "Failed to send the email. Check server logs for details."
	MsgUnauthorized            = "Unauthorized"
)
