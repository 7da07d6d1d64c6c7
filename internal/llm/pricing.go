package llm

// Pricing is USD per million tokens. Zero values mean the cost is unknown or
// free (local inference) and estimates come out as zero.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost computes the USD cost of a call.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*p.InputPerMTok +
		float64(outputTokens)/1e6*p.OutputPerMTok
}

// priceTable holds the published per-model rates. Keys are provider/model.
var priceTable = map[string]Pricing{
	"anthropic/claude-3-5-haiku-latest":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"anthropic/claude-3-5-sonnet-latest": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"anthropic/claude-sonnet-4-0":        {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"openai/gpt-4o":                      {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"openai/gpt-4o-mini":                 {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"groq/llama-3.3-70b-versatile":       {InputPerMTok: 0.59, OutputPerMTok: 0.79},
	"groq/llama-3.1-8b-instant":          {InputPerMTok: 0.05, OutputPerMTok: 0.08},
}

// PricingFor looks up the rate for a provider/model pair.
func PricingFor(provider, model string) Pricing {
	return priceTable[provider+"/"+model]
}
