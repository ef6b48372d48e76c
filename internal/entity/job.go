package entity

import (
	"time"

	"github.com/joseph-ayodele/receipts-extractor/constants"
)

// Job tracks one receipt through the asynchronous extraction pipeline.
type Job struct {
	ID            string              `json:"id"`
	FileName      string              `json:"file_name"`
	Language      string              `json:"language"`
	Status        constants.JobStatus `json:"status"`
	Error         string              `json:"error,omitempty"`
	RawResponse   string              `json:"raw_response,omitempty"`
	Escalated     bool                `json:"escalated"`
	Receipt       *Receipt            `json:"receipt,omitempty"`
	Valid         bool                `json:"valid"`
	InvalidReason string              `json:"invalid_reason,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// StoredReceipt is a receipt as persisted by a receipt store.
type StoredReceipt struct {
	ID            string    `json:"id" bson:"_id"`
	Receipt       Receipt   `json:"receipt" bson:"receipt"`
	Valid         bool      `json:"valid" bson:"valid"`
	InvalidReason string    `json:"invalid_reason,omitempty" bson:"invalid_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}
