package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
)

// DefaultClassifyAttempts is the number of model calls made before giving up
// on a reply that does not validate.
const DefaultClassifyAttempts = 3

const classifierSystemPrompt = `You are the intent classifier of a calendar assistant.
Supported intents: %s.
Reply with ONLY one JSON object, no markdown. assistant_reply is a short neutral answer for the user.

Rules:
- Fill "event" when a new event should be created. Recurring events set event.recurrence to daily, weekly or monthly.
- event.category is one of work, study, meeting, personal, health, sport, hobby, travel, focus, other. Pick the closest.
- If the user wants an online meeting (Meet, call, video link), set event.needs_meet=true.
- find_free_slot fills free_slot. Always fill free_slot.duration_minutes when a duration is mentioned.
- Schedule requests use agenda_day with agenda. Looking an event up by name uses event_lookup with event_query.
- Deleting uses event_delete with event_query naming the event.
- Editing uses event_update: event_query names the event, event_update lists only what changes.
- "2 hours later" or "30 minutes earlier" sets event_update.shift_minutes (positive is later, negative is earlier).
- An exact new time ("at 16:30") sets event_update.start_time.
- "add meet" sets add_meet=true, "remove the meet link" sets remove_meet=true.
- Productivity questions use analytics_overview.
- Preparing for a big deadline ("help me prepare for the exam") uses series_plan.
- Building a routine ("gym three times a week") uses habit_setup with habit.
- "start over" or "forget it" uses reset.
- Times are HH:MM (24h), dates are YYYY-MM-DD. Leave unknown fields null.`

const classifierSchema = `{
  "intent": "one of the supported intents",
  "confidence": "float from 0 to 1",
  "assistant_reply": "text for the user",
  "event": {"title": "string", "date": "YYYY-MM-DD or null", "start_time": "HH:MM or null", "end_time": "HH:MM or null", "duration_minutes": "int or null", "recurrence": "daily | weekly | monthly | null", "location": "string or null", "notes": "string or null", "needs_meet": "bool", "category": "category", "reminder_minutes": "int or null"},
  "free_slot": {"date_from": "YYYY-MM-DD or null", "date_to": "YYYY-MM-DD or null", "duration_minutes": "int", "preferred_window": "morning | day | evening | night | any"},
  "agenda": {"date": "YYYY-MM-DD or null", "time_window": "full | morning | day | evening | night"},
  "event_query": {"keywords": "string", "date": "YYYY-MM-DD or null"},
  "event_update": {"title": "string or null", "description": "string or null", "location": "string or null", "date": "YYYY-MM-DD or null", "start_time": "HH:MM or null", "end_time": "HH:MM or null", "duration_minutes": "int or null", "shift_minutes": "int or null", "add_meet": "bool", "remove_meet": "bool", "category": "string or null", "reminder_minutes": "int or null"},
  "series_plan": {"title": "string", "deadline": "YYYY-MM-DD or YYYY-MM-DD HH:MM", "total_hours": "number", "block_minutes": "int or null", "preferred_window": "morning | day | evening | any", "allow_weekends": "bool"},
  "habit": {"name": "string", "duration_minutes": "int", "preferred_window": "morning | day | evening | any", "sessions_per_week": "int 1-7", "fixed_time": "HH:MM or null"}
}`

const fallbackReply = "Sorry, I did not understand that. Could you rephrase?"

// Classifier maps free text onto a raw intent payload.
type Classifier struct {
	client   Client
	attempts int
}

// NewClassifier creates a Classifier. attempts <= 0 uses DefaultClassifyAttempts.
func NewClassifier(client Client, attempts int) *Classifier {
	if attempts <= 0 {
		attempts = DefaultClassifyAttempts
	}
	return &Classifier{client: client, attempts: attempts}
}

// BuildMessages creates the initial prompt for one user message.
func BuildMessages(text string, now time.Time) []Message {
	prompt := fmt.Sprintf(`Now: %s, %s %s.
Resolve relative words ("tomorrow", "next Tuesday", "in two days") to concrete YYYY-MM-DD dates. Convert durations to minutes.
Answer with JSON following this schema:
%s

User message: %s`,
		now.Format("Monday"), now.Format("2006-01-02"), now.Format("15:04"),
		classifierSchema, text)

	return []Message{
		{Role: "system", Content: fmt.Sprintf(classifierSystemPrompt, strings.Join(intent.Kinds(), ", "))},
		{Role: "user", Content: prompt},
	}
}

// Classify asks the model for an intent. Replies that are not JSON or name
// an unknown intent are retried with feedback. When attempts run out on
// unparseable output, a small_talk payload is returned.
func (c *Classifier) Classify(ctx context.Context, text string, now time.Time) (intent.Raw, error) {
	messages := BuildMessages(text, now)

	var last intent.Raw
	parsed := false
	for attempt := 0; attempt < c.attempts; attempt++ {
		var raw intent.Raw
		err := c.client.ChatJSON(ctx, messages, &raw)

		var feedback string
		switch {
		case err == nil:
			last, parsed = raw, true
			problems := Validate(raw)
			if len(problems) == 0 {
				return raw, nil
			}
			reply, _ := json.Marshal(raw)
			messages = append(messages, Message{Role: "assistant", Content: string(reply)})
			feedback = formatFeedback(problems)
		case isParseError(err):
			feedback = formatFeedback([]string{"the reply was not a single valid JSON object matching the schema"})
		default:
			return intent.Raw{}, fmt.Errorf("classifying message (attempt %d): %w", attempt+1, err)
		}

		messages = append(messages, Message{Role: "user", Content: feedback})
	}

	if parsed {
		return last, nil
	}
	return intent.Raw{Intent: string(intent.SmallTalk), Confidence: 0.1, Reply: fallbackReply}, nil
}

// Validate lists what is wrong with a raw reply.
func Validate(raw intent.Raw) []string {
	kind := intent.ParseKind(raw.Intent)
	if kind == intent.Unknown {
		return []string{fmt.Sprintf("intent %q is not one of: %s", raw.Intent, strings.Join(intent.Kinds(), ", "))}
	}

	var problems []string
	switch kind {
	case intent.CreateEvent:
		if raw.Event == nil || raw.Event.Title == nil || strings.TrimSpace(*raw.Event.Title) == "" {
			problems = append(problems, "create_event needs event.title")
		}
	case intent.EventUpdate:
		if raw.EventUpdate == nil {
			problems = append(problems, "event_update needs the event_update object")
		}
	case intent.SeriesPlan:
		if raw.SeriesPlan == nil {
			problems = append(problems, "series_plan needs the series_plan object")
		}
	case intent.HabitSetup:
		if raw.Habit == nil {
			problems = append(problems, "habit_setup needs the habit object")
		}
	}
	return problems
}

func formatFeedback(problems []string) string {
	var sb strings.Builder
	sb.WriteString("Your previous reply was invalid:\n")
	for _, p := range problems {
		sb.WriteString("- ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	sb.WriteString("Reply again with the corrected JSON object only.")
	return sb.String()
}

func isParseError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
