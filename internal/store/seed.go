package store

import "errors"

// DemoSessionID is the session seeded by SeedDemoData.
const DemoSessionID = "demo_session_123"

// DemoCarePlan is the structured plan stored for the demo session.
func DemoCarePlan() map[string]interface{} {
	return map[string]interface{}{
		"medications": []interface{}{
			map[string]interface{}{"name": "Ibuprofen 400mg", "frequency": "Every 6 hours", "instructions": "Take with food"},
			map[string]interface{}{"name": "Amoxicillin 500mg", "frequency": "3 times daily", "instructions": "Complete full course"},
		},
		"activities": []interface{}{
			map[string]interface{}{"activity": "Short walks", "frequency": "Every 2 hours", "restrictions": "5-10 minutes only"},
			map[string]interface{}{"activity": "Deep breathing", "frequency": "3 times daily", "restrictions": "None"},
		},
		"wound_care": []interface{}{
			"Change dressing daily",
			"Keep incision dry for 48 hours",
			"Watch for signs of infection",
		},
		"warning_signs": []interface{}{
			"Fever over 101°F",
			"Severe pain not controlled by medication",
			"Signs of infection at incision site",
		},
	}
}

var demoNotes = []string{
	"Day 1: Pain level manageable, took morning medication on time",
	"Day 2: Feeling better, completed short walk",
}

// SeedDemoData stores the demo care plan and notes unless the demo session
// already has a plan. It returns the demo session id.
func (s *Store) SeedDemoData() (string, error) {
	if _, err := s.GetCarePlan(DemoSessionID); err == nil {
		return DemoSessionID, nil
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if _, err := s.SaveCarePlan(DemoSessionID, DemoCarePlan()); err != nil {
		return "", err
	}
	for _, text := range demoNotes {
		if _, err := s.SavePatientNote(DemoSessionID, text); err != nil {
			return "", err
		}
	}
	return DemoSessionID, nil
}
