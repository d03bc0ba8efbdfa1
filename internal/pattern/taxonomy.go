// Package pattern derives canonical atrocity-pattern tags from a record's
// free text.
package pattern

// Category is one pattern of the taxonomy.
type Category struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Taxonomy is the fixed set of twelve pattern categories. Keywords match
// as lowercase substrings, so short fragments such as "list" or
// "national" match broadly; the published frequencies depend on that.
var Taxonomy = []Category{
	{
		ID:          "DEHUMANIZATION",
		Label:       "Dehumanizing rhetoric",
		Description: "Rhetoric portraying victims as less than human",
		Keywords: []string{
			"dehumaniz", "vermin", "cockroach", "parasite", "savage",
			"uncivilized", "inferior", "subhuman", "sub-human", "animal",
			"pest", "devil", "demon", "barbaric", "primitive", "dying race",
			"lesser", "rats", "dogs", "insects", "filth", "pollution",
		},
	},
	{
		ID:          "SCAPEGOATING",
		Label:       "Minorities scapegoated",
		Description: "Blaming a group for society's problems",
		Keywords: []string{
			"scapegoat", "blamed", "blamed on", "blamed for", "internal enemy",
			"existential threat", "fifth column", "traitor", "enemy within",
			"national problems", "military defeats", "security threat",
			"accused", "responsible for", "cause of",
		},
	},
	{
		ID:          "EMERGENCY_LAWS",
		Label:       "Legal exclusion escalating",
		Description: "Emergency powers or legal frameworks enabling persecution",
		Keywords: []string{
			"martial law", "emergency", "enabling act", "wartime", "war powers",
			"security justification", "state of exception", "suspend",
			"special powers", "tehcir", "law legalized", "decree",
		},
	},
	{
		ID:          "ECONOMIC_CRISIS",
		Label:       "Economic crisis exploited",
		Description: "Economic hardship exploited to target groups",
		Keywords: []string{
			"economic crisis", "depression", "hyperinflation", "famine",
			"crop failure", "food shortage", "weimar", "collapse", "poverty",
			"unemployment", "crisis",
		},
	},
	{
		ID:          "MEDIA_INCITEMENT",
		Label:       "State media incitement",
		Description: "Media inciting violence against target group",
		Keywords: []string{
			"radio", "incit", "broadcast", "newspaper", "rtlm", "der stürmer",
			"state media", "hate speech", "calls for violence", "list",
		},
	},
	{
		ID:          "ETHNIC_NATIONALISM",
		Label:       "Nationalist/ethnic purity ideology",
		Description: "Nationalist or ethnic purity ideology",
		Keywords: []string{
			"national", "ethnic", "racial", "purity", "homogen", "cleansing",
			"turkification", "pan-turanism", "hutu power", "aryan", "volksgemeinschaft",
			"greater serbia", "nationalism", "one nation", "our people",
		},
	},
	{
		ID:          "FORCED_DISPLACEMENT",
		Label:       "Forced displacement/deportation",
		Description: "Forced population movements",
		Keywords: []string{
			"deportation", "removal", "march", "exile", "expulsion", "relocation",
			"evacuation", "transfer", "ethnic cleansing", "trail of tears",
			"death march", "tehcir", "forced movement",
		},
	},
	{
		ID:          "MILITIA_VIOLENCE",
		Label:       "Militias and death squads",
		Description: "Paramilitaries, death squads, or militias",
		Keywords: []string{
			"militia", "paramilitary", "death squad", "interahamwe", "janjaweed",
			"einsatzgruppen", "irregular", "vigilante", "mob", "posse",
			"force publique", "special organization", "armed group",
		},
	},
	{
		ID:          "PROPERTY_SEIZURE",
		Label:       "Land/property seizures",
		Description: "Systematic property confiscation",
		Keywords: []string{
			"confiscat", "seized", "seizure", "aryanization", "land grab",
			"dispossess", "expropriate", "assets", "theft", "looting",
			"property taken",
		},
	},
	{
		ID:          "DELIBERATE_STARVATION",
		Label:       "Deliberate starvation policies",
		Description: "Famine as weapon or deliberate food denial",
		Keywords: []string{
			"famine", "starvation", "food denial", "grain quota", "blockade",
			"food export", "requisition", "hunger", "starved", "starving",
		},
	},
	{
		ID:          "COLONIAL_JUSTIFICATION",
		Label:       "Colonial/imperial 'civilizing' claims",
		Description: "Colonial 'civilizing mission' justification",
		Keywords: []string{
			"civilizing", "humanitarian cover", "mission", "white man's burden",
			"bringing civilization", "modernization", "development",
		},
	},
	{
		ID:          "INTERNATIONAL_INACTION",
		Label:       "International passivity",
		Description: "International community failed to intervene",
		Keywords: []string{
			"abandoned", "withdrew", "looked away", "ignored", "un failed",
			"world watch", "passive", "inaction", "no intervention",
		},
	},
}

// Lookup returns the category with the given id.
func Lookup(id string) (Category, bool) {
	for _, c := range Taxonomy {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// IDs returns the category identifiers in taxonomy order.
func IDs() []string {
	ids := make([]string, len(Taxonomy))
	for i, c := range Taxonomy {
		ids[i] = c.ID
	}
	return ids
}
