package handlers

import "time"

// CheckRateLimitRequest is the request for a rate limit check.
type CheckRateLimitRequest struct {
	Body struct {
		Key           string `doc:"Logical rate limit key"               example:"sms:+15095551234" json:"key"      minLength:"1"`
		Limit         int64  `doc:"Maximum requests per window"          example:"5"                json:"limit"    minimum:"1"`
		WindowSeconds int64  `doc:"Window length in seconds"             example:"60"               json:"windowSeconds" minimum:"1"`
	}
}

// CheckRateLimitResponse reports whether the request fit in the window.
type CheckRateLimitResponse struct {
	Body struct {
		Allowed   bool      `doc:"Whether the request is allowed"        json:"allowed"`
		Remaining int64     `doc:"Requests left in the current window"   json:"remaining"`
		ResetAt   time.Time `doc:"End of the current window"             json:"resetAt"`
	}
}

// ResetRateLimitRequest clears the current and previous windows for a key.
type ResetRateLimitRequest struct {
	Body struct {
		Key           string `doc:"Logical rate limit key"    example:"sms:+15095551234" json:"key" minLength:"1"`
		WindowSeconds int64  `doc:"Window length in seconds"  example:"60"               json:"windowSeconds" minimum:"1"`
	}
}

// BreakerStateRequest identifies a protected service.
type BreakerStateRequest struct {
	Service string `doc:"Protected service name" example:"payment-processor" path:"service"`
}

// BreakerStateResponse is the persisted breaker record plus its derived status.
type BreakerStateResponse struct {
	Body struct {
		Service       string     `doc:"Protected service name"                    json:"service"`
		Status        string     `doc:"Derived status: closed, open, half-open"   json:"status"`
		Open          bool       `doc:"Stored open flag"                          json:"open"`
		FailureCount  int        `doc:"Consecutive failures recorded"             json:"failureCount"`
		LastFailureAt *time.Time `doc:"Time of last recorded failure"             json:"lastFailureAt,omitempty"`
		HalfOpenUntil *time.Time `doc:"When the circuit becomes half-open"        json:"halfOpenUntil,omitempty"`
	}
}

// RecordFailureRequest records a dependency failure.
type RecordFailureRequest struct {
	Service string `doc:"Protected service name" example:"payment-processor" path:"service"`
	Body    struct {
		Threshold      int   `doc:"Failures required to open the circuit" example:"5"     json:"threshold"      minimum:"1"`
		ResetTimeoutMs int64 `doc:"Milliseconds before a probe is allowed" example:"30000" json:"resetTimeoutMs" minimum:"1"`
	}
}

// RecordFailureResponse reports the breaker position after the failure.
type RecordFailureResponse struct {
	Body struct {
		Open         bool `doc:"Whether the circuit is now open" json:"open"`
		FailureCount int  `doc:"Consecutive failures recorded"   json:"failureCount"`
	}
}

// RecordSuccessRequest records a dependency success, closing the circuit.
type RecordSuccessRequest struct {
	Service string `doc:"Protected service name" example:"payment-processor" path:"service"`
}

// GetValueRequest reads a key from the state facade.
type GetValueRequest struct {
	Key string `doc:"State key" example:"booking:hold:42" path:"key"`
}

// GetValueResponse carries the stored value and its remaining lifetime.
type GetValueResponse struct {
	Body struct {
		Key        string `doc:"State key"                                          json:"key"`
		Value      string `doc:"Stored value"                                       json:"value"`
		TTLSeconds int64  `doc:"Remaining lifetime in seconds; -1 means no expiry"  json:"ttlSeconds"`
	}
}

// SetValueRequest writes a key with an optional TTL.
type SetValueRequest struct {
	Key  string `doc:"State key" example:"booking:hold:42" path:"key"`
	Body struct {
		Value      string `doc:"Value to store"                        json:"value"`
		TTLSeconds int64  `doc:"Expiry in seconds; 0 means no expiry"  json:"ttlSeconds,omitempty" minimum:"0"`
	}
}

// DeleteValueRequest removes a key.
type DeleteValueRequest struct {
	Key string `doc:"State key" example:"booking:hold:42" path:"key"`
}
