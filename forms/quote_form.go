package forms

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"upbilling/models"
)

// FieldKind selects how a directory-backed field is rendered.
type FieldKind int

const (
	// FieldIdentifier is a plain id input, used when the directory could not be listed.
	FieldIdentifier FieldKind = iota
	// FieldChoice is a select list built from a directory listing.
	FieldChoice
)

type Choice struct {
	Value int64
	Label string
}

type Field struct {
	Name    string
	Label   string
	Kind    FieldKind
	Choices []Choice
}

func (f Field) IsChoice() bool { return f.Kind == FieldChoice }

func (f Field) allows(v int64) bool {
	if f.Kind != FieldChoice {
		return true
	}
	for _, c := range f.Choices {
		if c.Value == v {
			return true
		}
	}
	return false
}

// QuoteFormSchema describes the customer and project inputs of the quote form.
type QuoteFormSchema struct {
	Customer Field
	Project  Field
}

func directoryField(name, label string, choices []Choice) Field {
	if choices == nil {
		return Field{Name: name, Label: label, Kind: FieldIdentifier}
	}
	return Field{Name: name, Label: label, Kind: FieldChoice, Choices: choices}
}

// NewQuoteFormSchema renders a field as a choice list when its listing is non-nil
// and as an identifier input otherwise.
func NewQuoteFormSchema(projects, customers []Choice) QuoteFormSchema {
	return QuoteFormSchema{
		Customer: directoryField("customer_id", "Customer", customers),
		Project:  directoryField("project_id", "Target project", projects),
	}
}

// IdentifierSchema is the variant used when no directory listing is available.
func IdentifierSchema() QuoteFormSchema {
	return NewQuoteFormSchema(nil, nil)
}

type ItemInput struct {
	Label     string `form:"label" validate:"required,max=255"`
	Quantity  string `form:"quantity" validate:"required,numeric"`
	UnitPrice string `form:"unit_price" validate:"required,numeric"`
}

type SectionInput struct {
	Title string      `form:"title" validate:"required,max=255"`
	Items []ItemInput `form:"items" validate:"dive"`
}

// QuoteForm holds the raw submitted values so an invalid form can be re-rendered as typed.
type QuoteForm struct {
	Schema QuoteFormSchema `form:"-" validate:"-"`

	CustomerID  string         `form:"customer_id" validate:"required,number"`
	ProjectID   string         `form:"project_id" validate:"required,number"`
	Description string         `form:"description" validate:"required,max=10000"`
	Sections    []SectionInput `form:"sections" validate:"dive"`
}

// NewQuoteForm returns an empty form for the given schema.
func NewQuoteForm(schema QuoteFormSchema) *QuoteForm {
	return &QuoteForm{Schema: schema}
}

// QuoteFormFrom prefills the form from a stored quote for editing.
func QuoteFormFrom(q *models.Quote, schema QuoteFormSchema) *QuoteForm {
	f := &QuoteForm{
		Schema:      schema,
		CustomerID:  strconv.FormatInt(q.CustomerID, 10),
		ProjectID:   strconv.FormatInt(q.ProjectID, 10),
		Description: q.Description,
	}
	for _, s := range q.Sections {
		sec := SectionInput{Title: s.Title}
		for _, it := range s.Items {
			sec.Items = append(sec.Items, ItemInput{
				Label:     it.Label,
				Quantity:  it.Quantity.String(),
				UnitPrice: it.UnitPrice.String(),
			})
		}
		f.Sections = append(f.Sections, sec)
	}
	return f
}

var (
	sectionKey = regexp.MustCompile(`^sections\[(\d+)\]\[title\]$`)
	itemKey    = regexp.MustCompile(`^sections\[(\d+)\]\[items\]\[(\d+)\]\[(label|quantity|unit_price)\]$`)
)

// BindQuoteForm reads an urlencoded submission. Sections and items keep the
// order of their indexes; gaps left by rows removed in the browser are skipped.
func BindQuoteForm(values url.Values, schema QuoteFormSchema) *QuoteForm {
	f := &QuoteForm{
		Schema:      schema,
		CustomerID:  strings.TrimSpace(values.Get("customer_id")),
		ProjectID:   strings.TrimSpace(values.Get("project_id")),
		Description: values.Get("description"),
	}

	type section struct {
		title string
		items map[int]*ItemInput
	}
	sections := map[int]*section{}
	get := func(i int) *section {
		s, ok := sections[i]
		if !ok {
			s = &section{items: map[int]*ItemInput{}}
			sections[i] = s
		}
		return s
	}

	for key := range values {
		if m := sectionKey.FindStringSubmatch(key); m != nil {
			i, _ := strconv.Atoi(m[1])
			get(i).title = strings.TrimSpace(values.Get(key))
			continue
		}
		if m := itemKey.FindStringSubmatch(key); m != nil {
			i, _ := strconv.Atoi(m[1])
			j, _ := strconv.Atoi(m[2])
			s := get(i)
			it, ok := s.items[j]
			if !ok {
				it = &ItemInput{}
				s.items[j] = it
			}
			v := strings.TrimSpace(values.Get(key))
			switch m[3] {
			case "label":
				it.Label = v
			case "quantity":
				it.Quantity = v
			case "unit_price":
				it.UnitPrice = v
			}
		}
	}

	for _, i := range sortedKeys(sections) {
		s := sections[i]
		in := SectionInput{Title: s.title}
		for _, j := range sortedKeys(s.items) {
			if !s.items[j].blank() {
				in.Items = append(in.Items, *s.items[j])
			}
		}
		if in.Title == "" && len(in.Items) == 0 {
			continue
		}
		f.Sections = append(f.Sections, in)
	}
	return f
}

func (it ItemInput) blank() bool {
	return it.Label == "" && it.Quantity == "" && it.UnitPrice == ""
}

// WithBlankRows appends an empty item to every section and an empty section,
// giving the edit page room to grow. Blank rows are dropped again on bind.
func (f *QuoteForm) WithBlankRows() *QuoteForm {
	out := *f
	out.Sections = make([]SectionInput, 0, len(f.Sections)+1)
	for _, s := range f.Sections {
		s.Items = append(append([]ItemInput(nil), s.Items...), ItemInput{})
		out.Sections = append(out.Sections, s)
	}
	out.Sections = append(out.Sections, SectionInput{Items: []ItemInput{{}}})
	return &out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Validate checks the submission. On success it returns the quote content
// (customer, project, description and sections); derived fields are left to the caller.
func (f *QuoteForm) Validate() (*models.Quote, Violations, error) {
	v := Violations{}
	if err := check(f, v); err != nil {
		return nil, nil, err
	}
	if len(f.Sections) == 0 {
		v.Add("sections", CodeRequired)
	}

	q := &models.Quote{Description: strings.TrimSpace(f.Description)}
	q.CustomerID = parseID("customer_id", f.CustomerID, f.Schema.Customer, v)
	q.ProjectID = parseID("project_id", f.ProjectID, f.Schema.Project, v)

	for i, s := range f.Sections {
		sec := models.Section{Position: i, Title: s.Title}
		for j, it := range s.Items {
			prefix := "sections[" + strconv.Itoa(i) + "][items][" + strconv.Itoa(j) + "]"
			qty := parseAmount(prefix+"[quantity]", it.Quantity, quantityBounds, v)
			price := parseAmount(prefix+"[unit_price]", it.UnitPrice, priceBounds, v)
			sec.Items = append(sec.Items, models.Item{Position: j, Label: it.Label, Quantity: qty, UnitPrice: price})
		}
		q.Sections = append(q.Sections, sec)
	}

	// invoice amounts are a share of the total and share its column
	if v.Empty() && q.Total().GreaterThanOrEqual(priceBounds.max) {
		v.Add("sections", CodeOutOfRange)
	}
	if !v.Empty() {
		return nil, v, nil
	}
	return q, v, nil
}

func parseID(name, raw string, field Field, v Violations) int64 {
	if _, failed := v[name]; failed {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		v.Add(name, CodeInvalidNumber)
		return 0
	}
	if id <= 0 {
		v.Add(name, CodeOutOfRange)
		return 0
	}
	if !field.allows(id) {
		v.Add(name, CodeInvalidChoice)
		return 0
	}
	return id
}

// bounds mirrors a NUMERIC(precision, scale) column: at most scale decimals
// and a magnitude strictly below max.
type bounds struct {
	scale     int32
	max       decimal.Decimal
	allowZero bool
}

var (
	quantityBounds   = bounds{scale: 3, max: decimal.New(1, 9)}
	priceBounds      = bounds{scale: 2, max: decimal.New(1, 10), allowZero: true}
	percentageBounds = bounds{scale: 2, max: models.FullPercentage.Add(decimal.New(1, -2))}
)

func parseAmount(name, raw string, b bounds, v Violations) decimal.Decimal {
	if _, failed := v[name]; failed {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.Equal(d.Round(b.scale)) {
		v.Add(name, CodeInvalidNumber)
		return decimal.Zero
	}
	if d.IsNegative() || (!b.allowZero && d.IsZero()) || d.GreaterThanOrEqual(b.max) {
		v.Add(name, CodeOutOfRange)
	}
	return d
}

// ApplyNew fills the derived fields of a freshly created quote.
func ApplyNew(q *models.Quote, now time.Time) {
	q.Title = models.QuoteTitle(now.Year(), q.CustomerID, q.ProjectID)
	q.DateCreation = now
	q.DateEdition = now
	q.PdfPath = models.PdfPathPending
	q.State = models.QuoteDraft
}

// ApplyEdit copies the edited content onto the stored quote and stamps the edition date.
// Title, creation date, PDF path and state are kept.
func ApplyEdit(stored, edited *models.Quote, now time.Time) {
	stored.CustomerID = edited.CustomerID
	stored.ProjectID = edited.ProjectID
	stored.Description = edited.Description
	stored.Sections = edited.Sections
	stored.DateEdition = now
}
