package dynamo

// DynamoDB attribute names referenced in key and condition expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldFeedbackID = "feedback_id"
	fieldCreatedAt  = "created_at"
)
