package messages

import "strings"

const (
	PredictionTopicPrefix = "advisor/prediction/"
	FeedbackTopic         = "advisor/feedback/new"

	PredictionTopicFilter = "advisor/prediction/#"
	FeedbackTopicFilter   = "advisor/feedback/#"
)

func PredictionTopic(kind string) string { return PredictionTopicPrefix + kind }

// KindFromTopic returns the prediction kind of a topic, or "" for any
// other topic.
func KindFromTopic(topic string) string {
	if !strings.HasPrefix(topic, PredictionTopicPrefix) {
		return ""
	}
	return strings.TrimPrefix(topic, PredictionTopicPrefix)
}
