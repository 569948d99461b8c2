package wager

const simpleWinThreshold = 0.45

type simpleResolver struct{}

func (simpleResolver) Validate(Parameters) error {
	return nil
}

func (simpleResolver) Resolve(random Random, _ Parameters) Ruling {
	return simpleRuling(random.Float64())
}

func simpleRuling(draw float64) Ruling {
	if draw < simpleWinThreshold {
		return Ruling{Multiplier: multiplierEven, Description: "You win"}
	}
	return Ruling{Multiplier: multiplierLoss, Description: "You lose"}
}
