package combatlog

import "strconv"

// difficultyNames maps combat log difficulty identifiers to the labels
// used in recording filenames. The same label can appear under several
// ids because raid and legacy instances use distinct id ranges.
var difficultyNames = map[int]string{
	1:  "Normal",
	2:  "Heroic",
	3:  "Mythic",
	4:  "Mythic+",
	5:  "Timewalking",
	7:  "LFR",
	9:  "40Player",
	14: "Normal",
	15: "Heroic",
	16: "Mythic",
	17: "LFR",
	23: "Mythic",
	24: "Timewalking",
	33: "Timewalking",
}

// DifficultyName returns the human-readable label for a difficulty id.
// Unmapped ids render as "Difficulty_{id}".
func DifficultyName(id int) string {
	if name, ok := difficultyNames[id]; ok {
		return name
	}
	return "Difficulty_" + strconv.Itoa(id)
}
