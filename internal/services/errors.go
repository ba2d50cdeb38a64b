package services

import "errors"

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInvalidFormat    = errors.New("invalid content format")
	ErrInvalidHeroImage = errors.New("hero image must be an http(s) URL or a site path")

	ErrCommentNotFound    = errors.New("comment not found")
	ErrNameRequired       = errors.New("name is required")
	ErrContentRequired    = errors.New("comment text is required")
	ErrCommentTooLong     = errors.New("comment is too long")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrSpamCheckFailed    = errors.New("spam check failed")
	ErrInvalidParent      = errors.New("reply target does not belong to this post")
	ErrCommentsNotAllowed = errors.New("comments are only accepted on published posts")

	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrCategoryExists       = errors.New("category already exists")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSetupComplete      = errors.New("setup already completed")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameRequired   = errors.New("username is required")

	ErrUnknownTab          = errors.New("unknown settings tab")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrInvalidSetting      = errors.New("invalid setting value")

	ErrInvalidFileName = errors.New("invalid file name")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileType        = errors.New("file type not allowed")
)
