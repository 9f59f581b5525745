package engine

// Decay is lazy: nothing fades between operations and there is no timer.
// Every operation loads the stored state and advances it by the time elapsed
// since it was written.
//
// Body: each parameter relaxes toward its baseline,
//   v' = baseline + (v - baseline) * 0.5^(elapsed/half_life)
// with per-parameter baselines and half-lives from decay_config.
//
// Emotions: I' = I * 0.5^(elapsed/half_life(kind)), with negative kinds
// using a 1.3x half-life. Below 0.05 an instance is flagged decayed and
// leaves the active set; its row stays for history.
//
// Memories: salience and consolidation fade over a 30-day base half-life
// stretched by salience, consolidation and access count (each factor capped
// at 2x). A memory below 0.1 consolidation and unaccessed for 90 days is
// archived. Retrieval multiplies consolidation by 1.05 and un-archives.
//
// Computed in Go rather than SQL: modernc.org/sqlite has no pow().
