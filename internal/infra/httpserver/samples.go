package httpserver

// sampleTexts covers three registers: hedging, decisive and empathetic.
var sampleTexts = []string{
	"I think maybe we could possibly consider looking into this issue when we have some time, if that's okay with everyone.",
	"We need to address the budget shortfall immediately. I recommend cutting discretionary spending by 15% and reallocating resources to high-priority projects.",
	"Thank you for bringing this to my attention. I appreciate your patience as we work together to find the best solution for everyone involved.",
}
