package tone

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true,
	"isn't": true, "won't": true, "can't": true, "cannot": true,
}

var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "extremely": 1.5, "so": 1.2, "totally": 1.4,
}

// lexicon holds word polarities on the same -1..1 scale as Polarity.
var lexicon = map[string]float64{
	// positive
	"good": 0.7, "great": 0.8, "excellent": 1.0, "happy": 0.8, "congratulations": 0.9,
	"congrats": 0.9, "lucky": 0.6, "winner": 0.6, "won": 0.5, "free": 0.4,
	"bonus": 0.5, "reward": 0.6, "thanks": 0.4, "thank": 0.4, "please": 0.2,
	"dear": 0.4, "kind": 0.6, "nice": 0.6, "safe": 0.5, "secure": 0.4,
	"best": 0.9, "amazing": 0.8, "wonderful": 0.9, "love": 0.6, "glad": 0.6,
	"welcome": 0.5, "guaranteed": 0.4, "profit": 0.4, "easy": 0.4, "helpful": 0.6,
	// negative
	"bad": -0.7, "terrible": -1.0, "angry": -0.6, "problem": -0.4, "blocked": -0.5,
	"suspended": -0.5, "suspend": -0.4, "penalty": -0.6, "fine": -0.2, "arrest": -0.8,
	"illegal": -0.6, "fraud": -0.7, "legal": -0.1, "jail": -0.8, "police": -0.4,
	"fail": -0.6, "failed": -0.6, "wrong": -0.5, "lose": -0.6, "lost": -0.5,
	"danger": -0.7, "risk": -0.4, "threat": -0.7, "worst": -1.0, "hate": -0.8,
	"annoying": -0.6, "disappointed": -0.6, "sorry": -0.3, "sad": -0.5, "poor": -0.4,
	"deactivated": -0.5, "cancelled": -0.4, "expired": -0.4, "warning": -0.4, "last": -0.1,
}
