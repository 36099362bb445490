package reminder

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// Generator builds motivational reminders from the catalog's mood
// templates. It is safe for concurrent use.
type Generator struct {
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng. A nil rng is seeded
// from the clock.
func NewGenerator(c *Catalog, rng *rand.Rand) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Generator{catalog: c, rng: rng}
}

// Generate picks a random template for mood and fills its placeholders.
//
// Each placeholder is replaced at its first occurrence only; a template
// that repeats a placeholder keeps the later copies verbatim.
func (g *Generator) Generate(mood string) (string, error) {
	mood = strings.ToLower(strings.TrimSpace(mood))
	templates := g.catalog.Moods[mood]
	if len(templates) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}

	w := g.catalog.Words

	g.mu.Lock()
	template := pick(g.rng, templates)
	noun := pick(g.rng, w.Nouns)
	action := pick(g.rng, w.Actions)
	microAction := pick(g.rng, w.MicroActions)
	emoji := pick(g.rng, w.Emojis)
	g.mu.Unlock()

	text := strings.Replace(template, "{noun}", noun, 1)
	text = strings.Replace(text, "{action}", action, 1)
	text = strings.Replace(text, "{microAction}", microAction, 1)
	text = strings.Replace(text, "{emoji}", emoji, 1)
	return text, nil
}

func pick(rng *rand.Rand, items []string) string {
	return items[rng.IntN(len(items))]
}
