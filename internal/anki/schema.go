package anki

import "time"

// collectionSchema is the Anki 2.1 legacy collection layout (schema
// version 11), which every Anki release still imports.
var collectionSchema = []string{
	`CREATE TABLE col (id integer PRIMARY KEY, crt integer NOT NULL, mod integer NOT NULL,
		scm integer NOT NULL, ver integer NOT NULL, dty integer NOT NULL, usn integer NOT NULL,
		ls integer NOT NULL, conf text NOT NULL, models text NOT NULL, decks text NOT NULL,
		dconf text NOT NULL, tags text NOT NULL)`,
	`CREATE TABLE notes (id integer PRIMARY KEY, guid text NOT NULL, mid integer NOT NULL,
		mod integer NOT NULL, usn integer NOT NULL, tags text NOT NULL, flds text NOT NULL,
		sfld text NOT NULL, csum integer NOT NULL, flags integer NOT NULL, data text NOT NULL)`,
	`CREATE TABLE cards (id integer PRIMARY KEY, nid integer NOT NULL, did integer NOT NULL,
		ord integer NOT NULL, mod integer NOT NULL, usn integer NOT NULL, type integer NOT NULL,
		queue integer NOT NULL, due integer NOT NULL, ivl integer NOT NULL, factor integer NOT NULL,
		reps integer NOT NULL, lapses integer NOT NULL, left integer NOT NULL, odue integer NOT NULL,
		odid integer NOT NULL, flags integer NOT NULL, data text NOT NULL)`,
	`CREATE TABLE revlog (id integer PRIMARY KEY, cid integer NOT NULL, usn integer NOT NULL,
		ease integer NOT NULL, ivl integer NOT NULL, lastIvl integer NOT NULL, factor integer NOT NULL,
		time integer NOT NULL, type integer NOT NULL)`,
	`CREATE TABLE graves (usn integer NOT NULL, oid integer NOT NULL, type integer NOT NULL)`,
	`CREATE INDEX ix_notes_csum ON notes (csum)`,
	`CREATE INDEX ix_notes_usn ON notes (usn)`,
	`CREATE INDEX ix_cards_usn ON cards (usn)`,
	`CREATE INDEX ix_cards_nid ON cards (nid)`,
	`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
	`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
	`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
}

// schemaVersion is stored in col.ver
const schemaVersion = 11

// noteTypeName is the note type created in exported packages
const noteTypeName = "QB Basic (qb2anki)"

const noteTypeCSS = `.card {
  font-family: 'Noto Sans JP', sans-serif;
  background-color: white;
}

hr#answer {
  margin: 20px 0;
  border: 0;
  border-top: 1px solid #dde8f0;
}`

const latexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n" +
	"\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n" +
	"\\setlength{\\parindent}{0in}\n\\begin{document}"

// deck is an entry of col.decks
type deck struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Mod              int64  `json:"mod"`
	Desc             string `json:"desc"`
	Collapsed        bool   `json:"collapsed"`
	BrowserCollapsed bool   `json:"browserCollapsed"`
	Dyn              int    `json:"dyn"`
	Conf             int    `json:"conf"`
	USN              int    `json:"usn"`
	ExtendNew        int    `json:"extendNew"`
	ExtendRev        int    `json:"extendRev"`
	// [day, count] pairs for today's stats
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	LrnToday  [2]int `json:"lrnToday"`
	TimeToday [2]int `json:"timeToday"`
}

func newDeck(id int64, name, desc string, now time.Time) deck {
	return deck{
		ID:        id,
		Name:      name,
		Mod:       now.Unix(),
		Desc:      desc,
		Conf:      1,
		ExtendNew: 10,
		ExtendRev: 50,
	}
}

// deckOptions is an entry of col.dconf
type deckOptions struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Dyn      int    `json:"dyn"`
	Timer    int    `json:"timer"`
	MaxTaken int    `json:"maxTaken"`
	USN      int    `json:"usn"`
	Mod      int64  `json:"mod"`
	Autoplay bool   `json:"autoplay"`
	Replayq  bool   `json:"replayq"`
	New      struct {
		Delays        []int `json:"delays"`
		Ints          []int `json:"ints"`
		InitialFactor int   `json:"initialFactor"`
		PerDay        int   `json:"perDay"`
		Order         int   `json:"order"`
		Bury          bool  `json:"bury"`
		Separate      bool  `json:"separate"`
	} `json:"new"`
	Lapse struct {
		Delays      []int `json:"delays"`
		Mult        int   `json:"mult"`
		MinInt      int   `json:"minInt"`
		LeechFails  int   `json:"leechFails"`
		LeechAction int   `json:"leechAction"`
	} `json:"lapse"`
	Rev struct {
		PerDay   int     `json:"perDay"`
		Ease4    float64 `json:"ease4"`
		Fuzz     float64 `json:"fuzz"`
		MaxIvl   int     `json:"maxIvl"`
		IvlFct   int     `json:"ivlFct"`
		Bury     bool    `json:"bury"`
		MinSpace int     `json:"minSpace"`
	} `json:"rev"`
}

func defaultDeckOptions(now time.Time) deckOptions {
	o := deckOptions{ID: 1, Name: "Default", MaxTaken: 60, Mod: now.Unix(), Autoplay: true, Replayq: true}
	o.New.Delays = []int{1, 10}
	o.New.Ints = []int{1, 4, 7}
	o.New.InitialFactor = 2500
	o.New.PerDay = 20
	o.New.Order = 1
	o.New.Bury = true
	o.New.Separate = true
	o.Lapse.Delays = []int{10}
	o.Lapse.MinInt = 1
	o.Lapse.LeechFails = 8
	o.Rev.PerDay = 100
	o.Rev.Ease4 = 1.3
	o.Rev.Fuzz = 0.05
	o.Rev.MaxIvl = 36500
	o.Rev.IvlFct = 1
	o.Rev.Bury = true
	o.Rev.MinSpace = 1
	return o
}

// collectionConf is col.conf
type collectionConf struct {
	NextPos       int     `json:"nextPos"`
	EstTimes      bool    `json:"estTimes"`
	ActiveDecks   []int64 `json:"activeDecks"`
	SortType      string  `json:"sortType"`
	SortBackwards bool    `json:"sortBackwards"`
	AddToCur      bool    `json:"addToCur"`
	CurDeck       int64   `json:"curDeck"`
	NewSpread     int     `json:"newSpread"`
	DueCounts     bool    `json:"dueCounts"`
	CollapseTime  int     `json:"collapseTime"`
	TimeLim       int     `json:"timeLim"`
	SchedVer      int     `json:"schedVer"`
	CurModel      string  `json:"curModel"`
	DayLearnFirst bool    `json:"dayLearnFirst"`
}

type noteField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Sticky bool     `json:"sticky"`
	RTL    bool     `json:"rtl"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	Media  []string `json:"media"`
}

type cardTemplate struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	QFmt  string `json:"qfmt"`
	AFmt  string `json:"afmt"`
	DID   *int64 `json:"did"`
	BQFmt string `json:"bqfmt"`
	BAFmt string `json:"bafmt"`
}

// noteType is an entry of col.models: two fields holding pre-rendered
// HTML, shown as is by a single template
type noteType struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	USN       int             `json:"usn"`
	SortF     int             `json:"sortf"`
	DID       int64           `json:"did"`
	Req       [][]interface{} `json:"req"`
	Vers      []int           `json:"vers"`
	Tags      []string        `json:"tags"`
	LatexPre  string          `json:"latexPre"`
	LatexPost string          `json:"latexPost"`
	Flds      []noteField     `json:"flds"`
	Tmpls     []cardTemplate  `json:"tmpls"`
	CSS       string          `json:"css"`
}

func newNoteType(id, deckID int64, now time.Time) noteType {
	field := func(name string, ord int) noteField {
		return noteField{Name: name, Ord: ord, Font: "Noto Sans JP", Size: 15, Media: []string{}}
	}
	return noteType{
		ID:        id,
		Name:      noteTypeName,
		Mod:       now.Unix(),
		USN:       -1,
		DID:       deckID,
		Req:       [][]interface{}{{0, "all", []int{0}}},
		Vers:      []int{},
		Tags:      []string{},
		LatexPre:  latexPre,
		LatexPost: `\end{document}`,
		Flds:      []noteField{field("Front", 0), field("Back", 1)},
		Tmpls: []cardTemplate{{
			Name: "Card 1",
			QFmt: "{{Front}}",
			AFmt: "{{FrontSide}}\n\n<hr id=\"answer\">\n\n{{Back}}",
		}},
		CSS: noteTypeCSS,
	}
}
