package apperrors

var (
	ErrUserNotFound   = NotFound("user not found")
	ErrCoupleNotFound = NotFound("relationship not found")
	// Deliberately generic: callers must not learn whether a code ever existed.
	ErrInvalidCode     = NotFound("invalid pairing code")
	ErrSelfPairing     = Validation("you cannot connect with yourself")
	ErrAlreadyPaired   = Conflict("you are already in a relationship")
	ErrPartnerTaken    = Conflict("this user is already taken")
	ErrPairingConflict = Conflict("connection conflict, one of the users is already active in a couple")
	ErrNotInCouple     = Validation("you are not in a relationship")
	ErrNotMember       = Forbidden("unauthorized access to this relationship")
	ErrCoupleInactive  = Conflict("relationship is no longer active")
	ErrCodeExhausted   = Transient("system busy, please try again", nil)

	ErrInvalidMood         = Validation("mood must be one of Great, Good, Neutral, Bad, Fight")
	ErrDuplicateMood       = Conflict("you already submitted your mood today")
	ErrInvalidAppreciation = Validation("unknown appreciation type")
	ErrAppreciationCap     = RateLimited("daily appreciation limit reached (5/5)")
	ErrMissingMedia        = Validation("memory requires an uploaded image url and media id")
	ErrNoteTooLong         = Validation("note cannot exceed 500 characters")

	ErrNotInRecovery      = Conflict("couple is not in recovery mode")
	ErrInvalidRecoveryAct = Validation("unknown recovery action")

	ErrRequestToSelf      = Validation("cannot send request to yourself")
	ErrNotEligible        = Forbidden("you are not eligible for matching, ensure you are single and discoverable")
	ErrTargetUnavailable  = NotFound("user unavailable for matching")
	ErrReversePending     = Conflict("this user already sent you a request, check your inbox")
	ErrRequestPending     = Conflict("request already pending")
	ErrRequestCap         = RateLimited("daily request limit reached (20/day)")
	ErrRequestNotFound    = NotFound("invalid or expired request")
	ErrInvalidResponse    = Validation("action must be Accepted or Rejected")
	ErrNoLongerSingle     = Conflict("one of the users is no longer single")
	ErrRequestNotYours    = Forbidden("unauthorized")
	ErrNotificationAccess = Forbidden("unauthorized access")
	ErrNotificationGone   = NotFound("notification not found")

	ErrTxTimeout = Transient("transaction timed out", nil)
	ErrNoTx      = Internal("ledger update requires an open transaction", nil)
)
