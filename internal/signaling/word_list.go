package signaling

// Word pools for memorable room IDs. A room ID is three words joined by
// hyphens, e.g. "amber-falcon-harbor". Roughly 30^3 combinations, which
// is plenty for the number of rooms alive at once; IDs are ephemeral and
// uniqueness is checked against live rooms at generation time.

var colors = []string{
	"amber", "azure", "coral", "crimson", "golden", "indigo", "ivory", "jade", "lilac", "maroon",
	"olive", "pearl", "rose", "ruby", "rust", "sable", "saffron", "scarlet", "silver", "slate",
	"teal", "topaz", "umber", "violet", "cobalt", "copper", "ochre", "onyx", "plum", "sage",
}

var birds = []string{
	"falcon", "heron", "kestrel", "magpie", "osprey", "plover", "raven", "sparrow", "starling", "swift",
	"tern", "thrush", "wren", "crane", "egret", "finch", "grouse", "ibis", "jay", "kite",
	"lark", "loon", "oriole", "pelican", "pipit", "quail", "robin", "siskin", "swallow", "teal",
}

var places = []string{
	"harbor", "meadow", "summit", "valley", "canyon", "delta", "dune", "fjord", "glade", "grove",
	"inlet", "lagoon", "mesa", "moor", "oasis", "plateau", "prairie", "reef", "ridge", "shoal",
	"steppe", "strand", "tundra", "atoll", "bluff", "cove", "crag", "gorge", "heath", "knoll",
}
