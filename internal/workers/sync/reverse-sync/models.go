package reversesync

import "tour-sync/internal/tours/reverse"

type Input struct{}

type Output struct {
	ReverseResult *reverse.Result `json:"reverseResult"`
	Updated       int             `json:"updated"`
	Failed        int             `json:"failed"`
}
