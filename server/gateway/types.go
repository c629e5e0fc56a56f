package gateway

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ID accepts both JSON strings and numbers; backends differ on which they send.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type StartConversationRequest struct {
	SessionID string `json:"session_id"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatReply carries the reply text in one of two fields depending on the backend version.
type ChatReply struct {
	Answer   string `json:"answer"`
	Response string `json:"response"`
}

type DiagnoseRequest struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// StructuredDiagnosis is the structured form of a diagnosis.
type StructuredDiagnosis struct {
	PossibleCauses     []string `json:"possible_causes"`
	QuickChecks        []string `json:"quick_checks"`
	RecommendedActions []string `json:"recommended_actions"`
	QuestionsToAsk     []string `json:"questions_to_ask"`
	WhatToTellShop     string   `json:"what_to_tell_shop"`
	Urgency            string   `json:"urgency"`
	Confidence         string   `json:"confidence"`
}

// DiagnoseReply is either free-form text (Response or Message) or a structured Diagnosis.
type DiagnoseReply struct {
	Response  string               `json:"response"`
	Message   string               `json:"message"`
	Diagnosis *StructuredDiagnosis `json:"diagnosis"`
}

type EstimateRequest struct {
	Symptoms string `json:"symptoms"`
	Category string `json:"category"`
}

type EstimateReply struct {
	EstimatedWorkHours float64 `json:"estimated_work_hours"`
	Difficulty         string  `json:"difficulty"`
	DiagnosisFee       int64   `json:"diagnosis_fee"`
	LaborCostMin       int64   `json:"labor_cost_min"`
	LaborCostMax       int64   `json:"labor_cost_max"`
	PartsCostMin       int64   `json:"parts_cost_min"`
	PartsCostMax       int64   `json:"parts_cost_max"`
	TotalCostMin       int64   `json:"total_cost_min"`
	TotalCostMax       int64   `json:"total_cost_max"`
	Reasoning          string  `json:"reasoning"`
	SimilarCasesCount  int     `json:"similar_cases_count"`
}

type DealRequest struct {
	CustomerName       string `json:"customer_name"`
	Phone              string `json:"phone"`
	Email              string `json:"email,omitempty"`
	Prefecture         string `json:"prefecture"`
	SymptomCategory    string `json:"symptom_category"`
	SymptomDetail      string `json:"symptom_detail"`
	PartnerPageID      string `json:"partner_page_id"`
	NotificationMethod string `json:"notification_method"`
}

type DealReply struct {
	DealID ID `json:"deal_id"`
}

type NoteRequest struct {
	Note string `json:"note"`
}

type NoteReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Shop struct {
	ID         ID       `json:"id"`
	Name       string   `json:"name"`
	Prefecture string   `json:"prefecture"`
	Address    string   `json:"address,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Rating     float64  `json:"rating,omitempty"`
}

type ShopQuery struct {
	Prefecture string
	Category   string
}

type Case struct {
	ID              ID     `json:"id"`
	DealID          ID     `json:"deal_id,omitempty"`
	ShopID          ID     `json:"shop_id,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	SymptomCategory string `json:"symptom_category,omitempty"`
	Status          string `json:"status"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

type CaseQuery struct {
	ShopID string
	Status string
}

type CaseStatusRequest struct {
	Status string `json:"status"`
}

type shopsReply struct {
	Shops []Shop `json:"shops"`
}

type casesReply struct {
	Cases []Case `json:"cases"`
}

// errorBody captures the fields backends use to describe a failure.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

// extractMessage prefers the body's error field, then message, then detail.
func extractMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if msg := rawText(eb.Error); msg != "" {
		return msg
	}
	if eb.Message != "" {
		return eb.Message
	}
	return rawText(eb.Detail)
}

// rawText turns a string, {"message": ...} object or other scalar into text.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	if _, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return string(raw)
	}
	return strings.TrimSpace(string(raw))
}
