package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// SMSService delivers one-time codes through an external SMS gateway.
type SMSService struct {
	gatewayURL string
	token      string
	client     *http.Client
}

// NewSMSService creates a new SMSService.
func NewSMSService(gatewayURL, token string) *SMSService {
	return &SMSService{
		gatewayURL: gatewayURL,
		token:      token,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type smsMessage struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

// SendOTP sends the verification code to the given phone. When no gateway is
// configured the code is only logged, which keeps local development working.
func (s *SMSService) SendOTP(phone, otp string) error {
	text := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", otp)

	if s.gatewayURL == "" {
		log.Printf("[SMS] gateway not configured, code for %s: %s", phone, otp)
		return nil
	}

	body, err := json.Marshal(smsMessage{Phone: phone, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[SMS] failed to send code: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[SMS] unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}
