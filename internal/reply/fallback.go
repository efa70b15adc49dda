package reply

import (
	"slices"
	"strings"
	"unicode"

	"github.com/ashureev/scam-honeypot/internal/shared"
)

// Topic is the subject sniffed from an inbound message for bait replies.
type Topic string

const (
	TopicTax        Topic = "tax"
	TopicInvestment Topic = "investment"
	TopicParcel     Topic = "parcel"
	TopicCrypto     Topic = "crypto"
	TopicMedical    Topic = "medical"
	TopicJobPrize   Topic = "job_prize"
	TopicOTP        Topic = "otp"
	TopicBanking    Topic = "banking"
	TopicGeneric    Topic = "generic"
)

type topicBank struct {
	topic   Topic
	cues    []string
	replies []string
}

// banks are checked in order; the first bank with a cue word wins.
var banks = []topicBank{
	{
		topic: TopicTax,
		cues:  []string{"tax", "income", "notice", "demand", "department", "govt", "government", "penalty", "fine"},
		replies: []string{
			"Income Tax? But I always pay my taxes on time! Is there a mistake?",
			"Oh no, I don't want any trouble. Please tell me how to resolve this.",
			"Is this from the official IT department? Which year is this for?",
			"I have my ITR receipts here. Should I send you the acknowledgement number?",
			"Please don't levy a penalty. I am retired, I can't afford it.",
			"Wait, my CA handles all this. Can you talk to him? Or should I just pay?",
			"I'm very scared of government notices. What do I need to do first?",
		},
	},
	{
		topic: TopicInvestment,
		cues:  []string{"investment", "invest", "scheme", "double", "returns", "guaranteed", "earn", "daily", "business", "plan"},
		replies: []string{
			"Double returns in one month? That sounds better than my fixed deposit!",
			"Is this like the scheme my neighbour joined? He made a lot of money.",
			"How much is the minimum investment? I have some savings at home.",
			"Is it guaranteed? I don't want to lose my hard-earned money.",
			"Can I start with just 1000 rupees? I want to test it first.",
			"I've been looking for a way to earn more. Tell me the process.",
			"Do I need to refer my friends too to get the bonus?",
		},
	},
	{
		topic: TopicParcel,
		cues:  []string{"parcel", "customs", "package", "held", "dues", "courier", "delivery", "post", "shipment"},
		replies: []string{
			"Oh no! My grandson sent me a parcel from Canada. Is that the one?",
			"Which office is it held at? I can come and pick it up myself.",
			"Wait, I didn't order anything. Are you sure it's for me?",
			"How much are the dues? I hope it's not too expensive.",
			"Is it from BlueDart? They usually deliver at my door.",
			"Can you check the tracking number for me again?",
			"Okay, I'm opening my courier app. What is the link?",
		},
	},
	{
		topic: TopicCrypto,
		cues:  []string{"crypto", "bitcoin", "withdrawal", "profit", "trading", "wallet", "binance", "usdt"},
		replies: []string{
			"I saw this on the news! How do I get my profit out?",
			"Withdrawal charge? Can I pay it from my profit instead?",
			"I don't have a crypto wallet. How did I get this profit?",
			"Is this about that coin my friend told me about?",
			"Is my investment safe? I put all my savings in there.",
			"Wait, I'm getting confused with the keys. Can you explain?",
		},
	},
	{
		topic: TopicMedical,
		cues:  []string{"medical", "health", "insurance", "claim", "hospital", "settlement", "doctor", "policy"},
		replies: []string{
			"Is this about my surgery claim? I've been waiting for months.",
			"Medical charge? But my insurance policy is full coverage.",
			"Is someone in my family okay? I'm getting really scared now.",
			"I have my health card here. Should I read the policy number?",
			"Processing fee for my claim? I thought it was cashless.",
			"Wait, let me find my insurance papers. They are in the cupboard.",
		},
	},
	{
		topic: TopicJobPrize,
		cues:  []string{"job", "selected", "fee", "money", "pay", "payment", "winnings", "prize", "lottery", "refund", "subsidy", "salary"},
		replies: []string{
			"Oh, I really need this money! Where do I pay the fee?",
			"Is this the official selection? My son will be so happy!",
			"Can I pay using my neighbour's phone? I have no balance.",
			"How much salary will I get? I hope it's a permanent job.",
			"Where is your office? I can come and pay in cash if you want.",
			"This sounds like a dream! Tell me the next steps please.",
		},
	},
	{
		topic: TopicOTP,
		cues:  []string{"otp", "code", "pin", "verification", "frozen", "confirmed", "verify", "cvv"},
		replies: []string{
			"OTP? My phone screen is very blurry, let me check.",
			"Wait, the bank told me never to share this code. Is it safe?",
			"Is it the 6 digit number that just came? One second...",
			"The code is not showing up. Should I restart my phone?",
			"I see the message, but I don't know where to type the code.",
			"My grandson usually does this for me. Can you stay on the line?",
		},
	},
	{
		topic: TopicBanking,
		cues:  []string{"account", "bank", "card", "sbi", "hdfc", "icici", "axis", "blocked", "disabled", "suspended", "kyc"},
		replies: []string{
			"Please don't block my account! All my pension is in there.",
			"I just used my card yesterday. Why is it blocked now?",
			"Wait, which account? The one ending in 4291 or the other one?",
			"I have my passbook here. Should I go to the branch instead?",
			"Is my money safe? I'm getting really panicked now!",
			"I'm opening my bank app... it's taking so long to load.",
		},
	},
}

var genericReplies = []string{
	"Oh no, I'm so worried! What is happening exactly?",
	"I'm not very good with technology, can you explain simply?",
	"Wait, why is this happening now? I'm at the market right now.",
	"I'm typing as fast as I can, please don't close the chat.",
	"Everything is going so fast, my head is spinning a bit.",
	"Wait, let me find a pen and paper to write this down.",
	"My neighbour told me to be careful, but you sound very official.",
	"Is there a customer care number I can call back on?",
	"Hold on, my phone is at 5% battery, let me get the charger.",
	"Okay, I'm following your steps. What do I do after this?",
	"Can you tell me your name? I want to note it down.",
	"Wait, I think I clicked on the wrong link. What now?",
	"I trust you, please help me secure my savings.",
}

// ConfusedReply is the last-resort in-persona line used when nothing else is available.
const ConfusedReply = "Sorry, I'm a bit confused. What do I need to do?"

// DetectTopic returns the first topic whose cue words appear in text as whole words.
func DetectTopic(text string) Topic {
	words := words(text)
	for _, b := range banks {
		for _, cue := range b.cues {
			if words[cue] {
				return b.topic
			}
		}
	}
	return TopicGeneric
}

// Bait picks a locally computed reply for text. For the generic bank, replies
// in recent are skipped unless that would leave nothing to choose from.
func Bait(rng *shared.Rand, text string, recent []string) (string, Topic) {
	topic := DetectTopic(text)
	for _, b := range banks {
		if b.topic == topic {
			return shared.Pick(rng, b.replies), topic
		}
	}

	available := make([]string, 0, len(genericReplies))
	for _, r := range genericReplies {
		if !slices.Contains(recent, r) {
			available = append(available, r)
		}
	}
	if len(available) == 0 {
		available = genericReplies
	}
	return shared.Pick(rng, available), TopicGeneric
}

func words(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = true
	}
	return set
}
