package flows

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/askai"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
)

func stepPreview(result askai.Result) string {
	if !result.OK() {
		return "No response"
	}
	text := extractAIContent(result)
	if text == "" {
		return "No response"
	}
	return preview(text, 100)
}

func tokenPreview(jwt string, err error, n int) string {
	if err != nil {
		return preview("Error: "+err.Error(), n)
	}
	return preview(jwt, n)
}

// CompleteFlowTest runs token, session, care plan and question against the
// live upstream with built-in samples.
func (s *Service) CompleteFlowTest(ctx context.Context) (gin.H, int) {
	results := gin.H{
		"step1_jwt":       gin.H{},
		"step2_session":   gin.H{},
		"step3_care_plan": gin.H{},
		"step4_question":  gin.H{},
	}

	jwt, err := s.tokens.Token(ctx)
	results["step1_jwt"] = gin.H{"success": err == nil, "token_preview": tokenPreview(jwt, err, 30)}
	if err != nil {
		return gin.H{"error": "JWT failed", "flow_results": results}, http.StatusUnauthorized
	}

	sessionID, failure, status := s.EnsureSession(ctx, jwt, "")
	if failure != nil {
		results["step2_session"] = gin.H{"success": false, "session_id": nil, "details": failure}
		return gin.H{"error": "Session creation failed", "flow_results": results}, status
	}
	results["step2_session"] = gin.H{"success": true, "session_id": sessionID, "details": nil}

	plan := s.Ask(ctx, jwt, upstream.AskRequest{SessionID: sessionID, Command: selfTestCarePlanCommand, Content: sampleDischargeDocument}, true)
	results["step3_care_plan"] = gin.H{"success": plan.OK(), "response_preview": stepPreview(plan), "format": formatOf(plan)}

	answer := s.Ask(ctx, jwt, upstream.AskRequest{SessionID: sessionID, Command: selfTestQuestionCommand, Content: samplePatientQuestion}, true)
	results["step4_question"] = gin.H{"success": answer.OK(), "response_preview": stepPreview(answer), "format": formatOf(answer)}

	return gin.H{
		"overall_success": plan.OK() && answer.OK(),
		"flow_results":    results,
		"message":         "Complete flow test finished",
		"next_steps":      "Check individual step results for any failures",
	}, http.StatusOK
}

func (s *Service) envCheck() gin.H {
	creds := s.opts.Credentials
	check := gin.H{}
	for name, value := range map[string]string{
		"HEIDI_API_KEY": creds.APIKey,
		"HEIDI_EMAIL":   creds.Email,
		"HEIDI_USER_ID": creds.UserID,
	} {
		check[name] = gin.H{"set": value != "", "length": len(value)}
	}
	return check
}

// DebugReport checks credentials, token issuance, session creation and a
// trivial ask-AI call.
func (s *Service) DebugReport(ctx context.Context) (gin.H, int) {
	info := gin.H{
		"environment_check": s.envCheck(),
		"jwt_test":          gin.H{},
		"session_test":      gin.H{},
		"ask_ai_test":       gin.H{},
	}

	jwt, err := s.tokens.Token(ctx)
	info["jwt_test"] = gin.H{"success": err == nil, "token_preview": tokenPreview(jwt, err, 30)}
	if err == nil {
		sessionID, failure, status := s.EnsureSession(ctx, jwt, "")
		if failure != nil {
			info["session_test"] = gin.H{"success": false, "status": status, "details": failure}
		} else {
			info["session_test"] = gin.H{"success": true, "session_id": sessionID}
			result := s.Ask(ctx, jwt, upstream.AskRequest{
				SessionID:   sessionID,
				Command:     debugAskCommand,
				Content:     debugAskContent,
				ContentType: upstream.DefaultContentType,
			}, false)
			info["ask_ai_test"] = gin.H{
				"success":          result.OK(),
				"error":            !result.OK(),
				"format":           formatOf(result),
				"response_preview": preview(fmt.Sprintf("%v", result.Map()), 200),
			}
		}
	}

	return gin.H{
		"status":     "debug_complete",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"debug_info": info,
	}, http.StatusOK
}

// TokenOverview reports whether a token can be issued.
func (s *Service) TokenOverview(ctx context.Context) (gin.H, int) {
	jwt, err := s.tokens.Token(ctx)
	creds := s.opts.Credentials
	return gin.H{
		"success":   err == nil,
		"jwt_token": tokenPreview(jwt, err, 50),
		"env_check": gin.H{
			"api_key_set": creds.APIKey != "",
			"email_set":   creds.Email != "",
			"user_id_set": creds.UserID != "",
		},
	}, http.StatusOK
}

// SessionOverview issues a token and opens a new session.
func (s *Service) SessionOverview(ctx context.Context) (gin.H, int) {
	jwt, payload, status := s.Token(ctx)
	if payload != nil {
		return payload, status
	}
	sessionID, payload, status := s.EnsureSession(ctx, jwt, "")
	if payload != nil {
		return payload, status
	}
	return gin.H{
		"success":        true,
		"jwt_token":      preview(jwt, 20),
		"session_result": sessionID,
	}, http.StatusOK
}
