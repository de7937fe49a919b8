package textutil

import (
	"math/rand"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var TitleCaser = cases.Title(language.English)
var LowerCaser = cases.Lower(language.English)

// placeholder vocab for items uploaded before analysis names them
var Adjs []string = []string{
	"cozy",
	"sharp",
	"bold",
	"faded",
	"vintage",
	"round",
	"slim",
	"hidden",
	"essential",
	"golden",
	"green",
	"crimson",
	"black",
	"light",
	"moody",
	"careful",
	"rich",
	"pretty",
	"stubborn",
	"crisp",
	"soft",
	"half",
	"cheerful",
	"lazy",
	"dry",
	"modern",
	"yellow",
	"fresh",
	"ready",
	"unknown",
	"fantastic",
	"modest",
	"abstract",
	"decent",
	"odd",
	"foreign",
	"wide",
	"rare",
	"original",
}

var Nouns []string = []string{
	"layer",
	"piece",
	"staple",
	"find",
	"classic",
	"keeper",
	"favorite",
	"basic",
	"statement",
	"essential",
	"pick",
	"thread",
	"weave",
	"stitch",
	"cut",
	"drape",
	"fold",
	"shade",
	"tone",
	"texture",
	"pattern",
	"accent",
	"detail",
	"touch",
	"look",
	"fit",
	"style",
	"mood",
	"vibe",
	"season",
	"wardrobe",
	"closet",
	"outfit",
	"ensemble",
	"garment",
	"fabric",
	"item",
}

func RandomAdjective() string {

	pick := rand.Intn(len(Adjs))
	return Adjs[pick]
}

func RandomNounlike() string {

	pick := rand.Intn(len(Nouns))
	return Nouns[pick]
}
