package contextpack

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	// Use the bundled offline BPE tables instead of fetching them over
	// the network on first encoding() call.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// cl100kEncoding is the encoding used to estimate how many tokens a packed
// context will cost against an OpenAI-compatible model. Loaded lazily and
// shared across calls; tiktoken-go's BPE tables are read-only once built.
var (
	cl100kOnce sync.Once
	cl100k     *tiktoken.Tiktoken
	cl100kErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	cl100kOnce.Do(func() {
		cl100k, cl100kErr = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	})
	return cl100k, cl100kErr
}

// EstimateTokens returns the approximate token count for text under the
// cl100k_base encoding. Returns 0 if the encoding tables fail to load,
// which should not happen with the bundled offline loader.
func EstimateTokens(text string) int {
	enc, err := encoding()
	if err != nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}
