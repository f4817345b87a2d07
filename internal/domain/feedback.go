package domain

import "time"

// FeedbackRecord is one stored submission. Records are never updated after creation.
type FeedbackRecord struct {
	FeedbackID    string         `json:"id" dynamodbav:"feedback_id" bson:"_id"`
	CreatedAt     time.Time      `json:"created" dynamodbav:"created_at" bson:"created_at"`
	ProductName   string         `json:"product_name" dynamodbav:"product_name" bson:"product_name"`
	Comment       string         `json:"comment,omitempty" dynamodbav:"comment,omitempty" bson:"comment,omitempty"`
	AttachmentRef string         `json:"attachment_ref,omitempty" dynamodbav:"attachment_ref,omitempty" bson:"attachment_ref,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty" dynamodbav:"metadata,omitempty" bson:"metadata,omitempty"`
	ClientIP      string         `json:"client_ip,omitempty" dynamodbav:"client_ip,omitempty" bson:"client_ip,omitempty"`
}

// SubmissionInput is the raw payload posted by the desktop client.
type SubmissionInput struct {
	ProductName   string         `json:"product_name" validate:"required,max=128"`
	Comment       string         `json:"comment" validate:"required_without=AttachmentRef,max=32768"`
	AttachmentRef string         `json:"attachment_ref" validate:"max=1024"`
	Metadata      map[string]any `json:"metadata"`
}

// Upload describes an attachment stored ahead of its submission.
type Upload struct {
	Token    string `json:"token"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
