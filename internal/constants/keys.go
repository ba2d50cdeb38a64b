package constants

const (
	// Context Keys
	ContextKeySite       = "site"
	ContextKeyTranslator = "translator"
	ContextKeyIdentity   = "identity"
	ContextKeyCSRFToken  = "csrfToken"
	ContextKeyLanguages  = "languages"

	// Session Keys
	SessionKeyUserID     = "user_id"
	SessionKeyUsername   = "username"
	SessionKeyRole       = "role"
	SessionKeyAuthSource = "auth_source"
	SessionKeyCSRF       = "csrf"
	SessionKeyLang       = "lang"
	SessionKeyChallengeA = "challenge_a"
	SessionKeyChallengeB = "challenge_b"

	// Flash Keys
	FlashSuccess = "success"
	FlashError   = "error"

	SessionName   = "piperblog_session"
	CSRFFormField = "csrf"
	CSRFHeader    = "X-CSRF-Token"
)
