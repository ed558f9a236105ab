package rules

// ParamOption is one selectable parameter supplied by the View or the catalog file.
type ParamOption struct {
	Value       string `json:"value" yaml:"value" db:"param_id"`
	Label       string `json:"label" yaml:"label" db:"label"`
	Description string `json:"description" yaml:"description" db:"description"`
}

// UOMOption is one selectable unit of measure.
type UOMOption struct {
	Value string `json:"value" yaml:"value" db:"uom"`
	Label string `json:"label" yaml:"label" db:"label"`
}

// Catalog indexes parameter and unit options. A nil or empty Catalog accepts any
// parameter or unit and describes nothing.
type Catalog struct {
	params []ParamOption
	uoms   []UOMOption
	byID   map[string]ParamOption
	byUOM  map[string]UOMOption
}

// NewCatalog builds a catalog. Later duplicates of a value are ignored.
func NewCatalog(params []ParamOption, uoms []UOMOption) *Catalog {
	c := &Catalog{
		byID:  make(map[string]ParamOption, len(params)),
		byUOM: make(map[string]UOMOption, len(uoms)),
	}
	for _, p := range params {
		if _, dup := c.byID[p.Value]; dup {
			continue
		}
		c.byID[p.Value] = p
		c.params = append(c.params, p)
	}
	for _, u := range uoms {
		if _, dup := c.byUOM[u.Value]; dup {
			continue
		}
		c.byUOM[u.Value] = u
		c.uoms = append(c.uoms, u)
	}
	return c
}

// Describe returns the description for paramID, or "" when unknown.
func (c *Catalog) Describe(paramID string) string {
	if c == nil {
		return ""
	}
	return c.byID[paramID].Description
}

// KnownParam reports whether paramID is listed. Always true for an empty catalog.
func (c *Catalog) KnownParam(paramID string) bool {
	if c == nil || len(c.byID) == 0 {
		return true
	}
	_, ok := c.byID[paramID]
	return ok
}

// KnownUOM reports whether uom is listed. Always true when no units are configured.
func (c *Catalog) KnownUOM(uom string) bool {
	if c == nil || len(c.byUOM) == 0 {
		return true
	}
	_, ok := c.byUOM[uom]
	return ok
}

// Params returns the parameter options in insertion order.
func (c *Catalog) Params() []ParamOption {
	if c == nil {
		return nil
	}
	return append([]ParamOption(nil), c.params...)
}

// UOMs returns the unit options in insertion order.
func (c *Catalog) UOMs() []UOMOption {
	if c == nil {
		return nil
	}
	return append([]UOMOption(nil), c.uoms...)
}
