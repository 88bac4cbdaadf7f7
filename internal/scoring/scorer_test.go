package scoring

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/msg-spam-filter/internal/core"
)

func TestScorer_Scenarios(t *testing.T) {
	scorer := NewScorer(SMSProfile())
	thresholds := SMSProfile().Thresholds

	tests := []struct {
		name           string
		text           string
		wantCategories []core.Category
		wantFlagged    bool
		minConfidence  float64
	}{
		{
			name:           "Prize message with shortened link",
			text:           "CONGRATULATIONS! You have won $50,000! Click here to claim: bit.ly/xyz",
			wantCategories: []core.Category{core.CategorySpam, core.CategoryPhishing},
			wantFlagged:    true,
			minConfidence:  0.6,
		},
		{
			name:           "Package pickup notice",
			text:           "Your package is ready for pickup at the post office, tracking ABC123",
			wantCategories: []core.Category{core.CategorySafe},
			wantFlagged:    false,
		},
		{
			name:           "Suspended account impersonation",
			text:           "Your account has been suspended, verify now at secure-bank-gh.com",
			wantCategories: []core.Category{core.CategoryPhishing},
			wantFlagged:    true,
			minConfidence:  0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(scorer.ComputeScores(tt.text), thresholds)
			assert.Contains(t, tt.wantCategories, result.Category)
			assert.Equal(t, tt.wantFlagged, result.IsFlagged)
			assert.GreaterOrEqual(t, result.Confidence, tt.minConfidence)
		})
	}
}

func TestScorer_EmptyText(t *testing.T) {
	for _, profile := range []Profile{SMSProfile(), EmailProfile()} {
		scorer := NewScorer(profile)

		scores := scorer.ComputeScores("")
		assert.Equal(t, core.Scores{}, scores)

		result := Classify(scores, profile.Thresholds)
		assert.Equal(t, core.CategorySafe, result.Category)
		assert.False(t, result.IsFlagged)
		assert.Equal(t, 1.0, result.Confidence)
		assert.Equal(t, "No suspicious patterns detected", result.Reason)
	}
}

func TestScorer_WhitespaceAndSymbols(t *testing.T) {
	scorer := NewScorer(SMSProfile())

	for _, text := range []string{"   \n\t ", "😀😀😀", "12345 67890", "!!", "\xff\xfe"} {
		result := Classify(scorer.ComputeScores(text), SMSProfile().Thresholds)
		assert.Equal(t, core.CategorySafe, result.Category, "text %q", text)
	}
}

func TestScorer_SpamKeywordsAccumulate(t *testing.T) {
	scorer := NewScorer(SMSProfile())

	scores := scorer.ComputeScores("winner of the lottery jackpot")
	assert.InDelta(t, 0.75, scores.Spam, 1e-9)
	assert.InDelta(t, 0.0, scores.Phishing, 1e-9)
}

func TestScorer_URLAndShortener(t *testing.T) {
	scorer := NewScorer(SMSProfile())

	plain := scorer.ComputeScores("see https://example.org/docs")
	assert.InDelta(t, 0.3, plain.Phishing, 1e-9)

	short := scorer.ComputeScores("see https://bit.ly/abc and http://tinyurl.com/x")
	assert.InDelta(t, 0.3+0.2+0.2, short.Phishing, 1e-9)

	subdomain := scorer.ComputeScores("go to https://www.goo.gl/q")
	assert.InDelta(t, 0.5, subdomain.Phishing, 1e-9)

	noScheme := scorer.ComputeScores("bit.ly/xyz")
	assert.InDelta(t, 0.0, noScheme.Phishing, 1e-9)
}

func TestScorer_UrgencyWords(t *testing.T) {
	sms := NewScorer(SMSProfile())
	email := NewScorer(EmailProfile())

	text := "reply asap, this is an emergency"
	assert.InDelta(t, 0.3, sms.ComputeScores(text).Spam, 1e-9)
	assert.InDelta(t, 0.6, email.ComputeScores(text).Spam, 1e-9)
}

func TestScorer_UppercaseRatio(t *testing.T) {
	scorer := NewScorer(SMSProfile())

	shouting := scorer.ComputeScores("HELLO THERE")
	assert.InDelta(t, 0.2, shouting.Spam, 1e-9)

	calm := scorer.ComputeScores("Hello there")
	assert.InDelta(t, 0.0, calm.Spam, 1e-9)
}

func TestScorer_EmailChecksSubjectFormatting(t *testing.T) {
	scorer := NewScorer(EmailProfile())

	inBody := scorer.Score(Input{Body: "HELLO THERE!!!"}).Scores
	assert.InDelta(t, 0.0, inBody.Spam, 1e-9)

	inSubject := scorer.Score(Input{Subject: "HELLO THERE!!!"}).Scores
	assert.InDelta(t, 0.2+0.3, inSubject.Spam, 1e-9)
}

func TestScorer_SMSChecksBodyFormatting(t *testing.T) {
	scorer := NewScorer(SMSProfile())

	scores := scorer.ComputeScores("hello there!!!")
	assert.InDelta(t, 0.15, scores.Spam, 1e-9)

	twoBangs := scorer.ComputeScores("hello there!!")
	assert.InDelta(t, 0.0, twoBangs.Spam, 1e-9)
}

func TestScorer_SubjectWeights(t *testing.T) {
	scorer := NewScorer(EmailProfile())

	scores := scorer.Score(Input{Subject: "prize", Body: "verify"}).Scores
	assert.InDelta(t, 0.4, scores.Spam, 1e-9)
	assert.InDelta(t, 0.15, scores.Phishing, 1e-9)

	both := scorer.Score(Input{Subject: "verify", Body: "verify"}).Scores
	assert.InDelta(t, 0.3+0.15, both.Phishing, 1e-9)
}

func TestScorer_SenderFlags(t *testing.T) {
	scorer := NewScorer(EmailProfile())

	flagged := scorer.Score(Input{Sender: "Security Team <no-reply@mail.example>"}).Scores
	assert.InDelta(t, 0.2, flagged.Spam, 1e-9)

	plain := scorer.Score(Input{Sender: "alice@example.com"}).Scores
	assert.InDelta(t, 0.0, plain.Spam, 1e-9)
}

func TestScorer_PhoneNumbers(t *testing.T) {
	scorer := NewScorer(SMSProfile())

	foreign := scorer.ComputeScores("call +4915112345678 today")
	assert.InDelta(t, 0.2, foreign.Phishing, 1e-9)

	trusted := scorer.ComputeScores("call +233241234567 today")
	assert.InDelta(t, 0.0, trusted.Phishing, 1e-9)

	mixed := scorer.ComputeScores("call 0241234567890 or +233241234567")
	assert.InDelta(t, 0.0, mixed.Phishing, 1e-9)

	short := scorer.ComputeScores("code 123456")
	assert.InDelta(t, 0.0, short.Phishing, 1e-9)
}

func TestScorer_NoTrustedPattern(t *testing.T) {
	profile := SMSProfile()
	profile.TrustedPhone = nil
	scorer := NewScorer(profile)

	scores := scorer.ComputeScores("call +233241234567")
	assert.InDelta(t, 0.2, scores.Phishing, 1e-9)
}

func TestScorer_CustomTrustedPattern(t *testing.T) {
	profile := SMSProfile()
	profile.TrustedPhone = regexp.MustCompile(`^\+?44`)
	scorer := NewScorer(profile)

	assert.InDelta(t, 0.0, scorer.ComputeScores("+447700900123").Phishing, 1e-9)
	assert.InDelta(t, 0.2, scorer.ComputeScores("+233241234567").Phishing, 1e-9)
}

func TestScorer_FinancialIsInformational(t *testing.T) {
	scorer := NewScorer(SMSProfile())

	scores := scorer.ComputeScores("your invoice and refund via wallet")
	assert.InDelta(t, 0.3, scores.Financial, 1e-9)
	assert.InDelta(t, 0.0, scores.Spam, 1e-9)

	result := Classify(scores, SMSProfile().Thresholds)
	assert.Equal(t, core.CategorySafe, result.Category)
}

func TestScorer_ScoreMessage(t *testing.T) {
	scorer := NewScorer(EmailProfile())

	assert.Equal(t, core.Scores{}, scorer.ScoreMessage(nil))

	msg := &core.Message{
		Source:  core.SourceEmail,
		Sender:  "admin@paypa1.example",
		Subject: "URGENT ACCOUNT NOTICE!!!",
		Body:    "Please verify your password at https://bit.ly/reset",
	}
	scores := scorer.ScoreMessage(msg)

	// subject: urgent (urgency 0.3), caps 0.2, bangs 0.3; sender admin 0.2
	assert.InDelta(t, 1.0, scores.Spam, 1e-9)
	// subject account 0.3; body verify+password 0.3; url 0.3; shortener 0.2
	assert.InDelta(t, 1.1, scores.Phishing, 1e-9)
}

func TestScorer_BreakdownSignals(t *testing.T) {
	scorer := NewScorer(SMSProfile())

	b := scorer.Score(Input{Body: "claim your prize at https://bit.ly/x"})
	names := make([]string, 0, len(b.Signals))
	for _, s := range b.Signals {
		names = append(names, s.Name)
	}

	assert.Contains(t, names, "spam_keyword")
	assert.Contains(t, names, "url")
	assert.Contains(t, names, "shortened_url")

	var spam, phishing float64
	for _, s := range b.Signals {
		switch s.Target {
		case "spam":
			spam += s.Weight
		case "phishing":
			phishing += s.Weight
		}
	}
	assert.InDelta(t, b.Scores.Spam, spam, 1e-9)
	assert.InDelta(t, b.Scores.Phishing, phishing, 1e-9)
}

func TestUppercaseRatio(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"1234 !!", 0},
		{"ABC", 1},
		{"AbCd", 0.5},
		{"ПРИ вет", 0.5},
		{"日本語", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.InDelta(t, tt.want, UppercaseRatio(tt.text), 1e-9)
		})
	}
}

func TestProfiles_Validate(t *testing.T) {
	require.NoError(t, SMSProfile().Validate())
	require.NoError(t, EmailProfile().Validate())

	broken := SMSProfile()
	broken.Thresholds.Suspicious = 0.9
	assert.Error(t, broken.Validate())

	broken = EmailProfile()
	broken.CapsField = "headers"
	assert.Error(t, broken.Validate())

	broken = EmailProfile()
	broken.Thresholds.MaxConfidence = 1.5
	assert.Error(t, broken.Validate())

	broken = SMSProfile()
	broken.Weights.SpamBody = -0.5
	assert.ErrorContains(t, broken.Validate(), "weight spam_body must not be negative")

	zeroed := SMSProfile()
	zeroed.Weights.Caps = 0
	assert.NoError(t, zeroed.Validate())
}
