package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ReviewPromptFormat is the prompt sent to every LLM reviewer.
// Arguments: source, sender, subject, body.
const ReviewPromptFormat = `You are a spam and phishing detection system for SMS and email messages.
A rule-based filter marked the following message as suspicious. Give a second opinion.
Respond with a JSON object containing:
- verdict: one of "SAFE", "SUSPICIOUS", "SPAM", "PHISHING", "FRAUD"
- confidence: number between 0 and 1 (how confident you are in your assessment)
- explanation: string (brief explanation of your verdict)

Message:
Source: %s
From: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// ErrNoJSON is returned when a model response contains no JSON object
var ErrNoJSON = errors.New("no JSON object in response")

// ReviewResponse is the structured answer expected from a reviewer model
type ReviewResponse struct {
	Verdict     string  `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// FormatReviewPrompt fills the review prompt
func FormatReviewPrompt(source, sender, subject, body string) string {
	return fmt.Sprintf(ReviewPromptFormat, source, sender, subject, body)
}

// ParseReviewResponse decodes a model response, tolerating prose around the JSON object
func ParseReviewResponse(responseText string) (*ReviewResponse, error) {
	var resp ReviewResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err == nil {
		return normalizeReview(&resp), nil
	}

	start := strings.Index(responseText, "{")
	end := strings.LastIndex(responseText, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}

	if err := json.Unmarshal([]byte(responseText[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}

	return normalizeReview(&resp), nil
}

func normalizeReview(resp *ReviewResponse) *ReviewResponse {
	resp.Verdict = strings.ToUpper(strings.TrimSpace(resp.Verdict))
	if resp.Confidence < 0 {
		resp.Confidence = 0
	}
	if resp.Confidence > 1 {
		resp.Confidence = 1
	}
	return resp
}
