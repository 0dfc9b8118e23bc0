package rectilinear

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/gribio"
	"github.com/sdifrance/gribcollection/internal/tables"
)

// Options configures Build.
type Options struct {
	// MergeSubsetCoords replaces a coordinate contained in a longer
	// coordinate of the same group by the longer one, leaving missing
	// slots in the variables that use it.
	MergeSubsetCoords bool
	// Tables names parameters. Nil uses the built-in tables.
	Tables *tables.Lookup
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{MergeSubsetCoords: true}
}

// Stats summarizes a build.
type Stats struct {
	Records    int
	Groups     int
	Variables  int
	Duplicates int
	Missing    int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d records, %d groups, %d variables, %d duplicates, %d missing slots",
		s.Records, s.Groups, s.Variables, s.Duplicates, s.Missing)
}

// atom is a record with its coordinate values within its variable.
type atom struct {
	rec  *gribio.Record
	time recordTime
	tv   TimeValue
	lev  Level
	ens  grib1.EnsembleMember
}

// varBuilder collects the records of one variable.
type varBuilder struct {
	v     *Variable
	first *gribio.Record
	atoms []*atom

	time *TimeCoord
	vert *VertCoord
	ens  *EnsCoord
}

// Build groups records by grid and variable and fills the slots of each
// variable. Records are taken in scan order: when two records share a
// slot the later one is kept.
//
// Unknown grid templates and time range indicators fail the build.
func Build(name string, files []string, records []*gribio.Record, opts Options) (*Collection, Stats, error) {
	lookup := opts.Tables
	if lookup == nil {
		var err error
		if lookup, err = tables.Default(); err != nil {
			return nil, Stats{}, err
		}
	}
	c := &Collection{Name: name, Files: files}
	stats := Stats{Records: len(records)}
	if len(records) > 0 {
		p := records[0].PDS
		c.Center, c.SubCenter, c.TableVersion, c.GenProcess = p.Center(), p.SubCenter(), p.TableVersion(), p.GenProcess()
	}

	// Pass 1: group by grid.
	var gridOrder []uint64
	byGrid := map[uint64][]*gribio.Record{}
	for _, r := range records {
		h := r.GDS.Hash()
		if _, ok := byGrid[h]; !ok {
			gridOrder = append(gridOrder, h)
		}
		byGrid[h] = append(byGrid[h], r)
	}

	for _, h := range gridOrder {
		recs := byGrid[h]
		g, err := buildGroup(recs, lookup, opts)
		if err != nil {
			return nil, stats, err
		}
		for _, v := range g.Variables {
			stats.Duplicates += v.Duplicates
			for _, s := range v.Slots {
				if s.Missing() {
					stats.Missing++
				}
			}
		}
		glog.Infof("group %s: %d records, %d variables, %d time, %d vertical, %d ensemble coordinates",
			g.Name, len(recs), len(g.Variables), len(g.TimeCoords), len(g.VertCoords), len(g.EnsCoords))
		c.Groups = append(c.Groups, g)
	}
	uniqueGroupNames(c.Groups)
	sortGroups(c.Groups)
	stats.Groups = len(c.Groups)
	stats.Variables = c.Variables()
	return c, stats, nil
}

func buildGroup(recs []*gribio.Record, lookup *tables.Lookup, opts Options) (*Group, error) {
	gds := recs[0].GDS
	grid, err := gds.EnsureDecoded()
	if err != nil {
		return nil, errors.Wrapf(err, "decoding grid of record @ byte offset %d of file %d", recs[0].Pos, recs[0].FileNo)
	}
	g := &Group{Name: grib1.GridName(grid), GDS: gds, Grid: grid}

	// Pass 2: group by variable key.
	var order []int32
	byKey := map[int32]*varBuilder{}
	for _, r := range recs {
		pt, err := r.PDS.ParamTime()
		if err != nil {
			return nil, errors.Wrapf(err, "record @ byte offset %d of file %d", r.Pos, r.FileNo)
		}
		key := VariableKey(r.PDS, gds.Hash(), pt)
		vb, ok := byKey[key]
		if !ok {
			vb = &varBuilder{v: newVariable(key, r.PDS, pt, lookup), first: r}
			byKey[key] = vb
			order = append(order, key)
		}
		a := &atom{
			rec:  r,
			time: recordTime{ref: r.PDS.ReferenceTime(), unit: r.PDS.TimeUnit(), pt: pt},
			lev:  recordLevel(r.PDS),
		}
		if m, ok := r.PDS.Ensemble(); ok {
			a.ens = m
		}
		vb.atoms = append(vb.atoms, a)
	}

	// Pass 3: coordinates, shared between the variables of the group.
	times := newCoordTable[*TimeCoord]()
	verts := newCoordTable[*VertCoord]()
	enss := newCoordTable[*EnsCoord]()
	builders := make([]*varBuilder, len(order))
	for i, key := range order {
		vb := byKey[key]
		builders[i] = vb
		vb.buildCoords()
		vb.v.TimeIdx = times.add(timeKey(vb.time), vb.time)
		vb.v.VertIdx, vb.v.EnsIdx = -1, -1
		if vb.vert != nil {
			vb.v.VertIdx = verts.add(vertKey(vb.vert), vb.vert)
		}
		if vb.ens != nil {
			vb.v.EnsIdx = enss.add(ensKey(vb.ens), vb.ens)
		}
	}
	g.TimeCoords, g.VertCoords, g.EnsCoords = times.coords, verts.coords, enss.coords
	if opts.MergeSubsetCoords {
		var tm, vm, em []int
		g.TimeCoords, tm = mergeSubsets(g.TimeCoords)
		g.VertCoords, vm = mergeSubsets(g.VertCoords)
		g.EnsCoords, em = mergeSubsets(g.EnsCoords)
		for _, vb := range builders {
			vb.v.TimeIdx = tm[vb.v.TimeIdx]
			if vb.v.VertIdx >= 0 {
				vb.v.VertIdx = vm[vb.v.VertIdx]
			}
			if vb.v.EnsIdx >= 0 {
				vb.v.EnsIdx = em[vb.v.EnsIdx]
			}
		}
	}

	// Pass 4: slots.
	for _, vb := range builders {
		if err := vb.fillSlots(g); err != nil {
			return nil, errors.Wrapf(err, "variable %s of group %s", vb.v.Name, g.Name)
		}
		if vb.v.Duplicates > 0 {
			glog.Infof("%s/%s: %d duplicate records overwritten", g.Name, vb.v.Name, vb.v.Duplicates)
		}
		g.Variables = append(g.Variables, vb.v)
	}
	uniqueNames(g.Variables)
	sortVariables(g.Variables)
	return g, nil
}

func (vb *varBuilder) buildCoords() {
	interval := vb.atoms[0].time.pt.IsInterval
	times := make([]recordTime, len(vb.atoms))
	for i, a := range vb.atoms {
		times[i] = a.time
	}
	var tvs []TimeValue
	vb.time, tvs = buildTimeCoord(times, interval)
	for i, a := range vb.atoms {
		a.tv = tvs[i]
	}
	if vb.time.Downgraded {
		glog.Warningf("%s: records have different reference times or units, time coordinate expressed in %s", vb.v.Name, vb.time.Unit)
	}

	lt := grib1.LookupLevel(vb.v.LevelType)
	if lt.HasValue {
		levels := make([]Level, len(vb.atoms))
		for i, a := range vb.atoms {
			levels[i] = a.lev
		}
		vb.vert = newVertCoord(vb.v.LevelType, levels)
	}

	ensemble := false
	for _, a := range vb.atoms {
		if _, ok := a.rec.PDS.Ensemble(); ok {
			ensemble = true
			break
		}
	}
	if ensemble {
		members := make([]grib1.EnsembleMember, len(vb.atoms))
		for i, a := range vb.atoms {
			members[i] = a.ens
		}
		vb.ens = newEnsCoord(members)
	}
}

// fillSlots places each atom at ((t*nens)+e)*nverts+z.
func (vb *varBuilder) fillSlots(g *Group) error {
	v := vb.v
	tc := g.TimeCoords[v.TimeIdx]
	ntimes, nens, nverts := v.Shape(g)
	v.Slots = make([]Slot, ntimes*nens*nverts)
	v.Records = len(vb.atoms)
	for _, a := range vb.atoms {
		t, ok := tc.Index(a.tv)
		if !ok {
			return errors.Wrapf(ErrInconsistent, "time %v of record @ byte offset %d not in %s", a.tv, a.rec.Pos, tc)
		}
		e, z := 0, 0
		if v.EnsIdx >= 0 {
			if e, ok = g.EnsCoords[v.EnsIdx].Index(a.ens); !ok {
				return errors.Wrapf(ErrInconsistent, "ensemble member %s of record @ byte offset %d not found", a.ens, a.rec.Pos)
			}
		}
		if v.VertIdx >= 0 {
			if z, ok = g.VertCoords[v.VertIdx].Index(a.lev); !ok {
				return errors.Wrapf(ErrInconsistent, "level %v of record @ byte offset %d not found", a.lev, a.rec.Pos)
			}
		}
		i := SlotIndex(t, e, z, nens, nverts)
		if !v.Slots[i].Missing() {
			v.Duplicates++
			glog.V(2).Infof("%s: record @ byte offset %d of file %d replaces slot %d", v.Name, a.rec.Pos, a.rec.FileNo, i)
		}
		v.Slots[i] = Slot{FileNo: a.rec.FileNo, Pos: a.rec.Pos, BDSOffset: a.rec.BDSOffset, Length: a.rec.Length}
	}
	return nil
}

func newVariable(key int32, pds *grib1.ProductDefinition, pt grib1.ParamTime, lookup *tables.Lookup) *Variable {
	lt := grib1.LookupLevel(pds.LevelType())
	v := &Variable{
		Key:          key,
		Center:       pds.Center(),
		SubCenter:    pds.SubCenter(),
		TableVersion: pds.TableVersion(),
		GenProcess:   pds.GenProcess(),
		Parameter:    pds.Parameter(),
		LevelType:    pds.LevelType(),
		IsLayer:      lt.IsLayer,
		IsInterval:   pt.IsInterval,
		Stat:         grib1.StatNone,
	}
	if pt.IsInterval {
		v.IntervalSize = pt.IntervalSize()
		v.Stat = pt.Stat
	}
	if p, ok := lookup.Parameter(v.Center, v.SubCenter, v.TableVersion, v.Parameter); ok {
		v.Name, v.Description, v.Units = p.Name, p.Description, p.Units
	} else {
		v.Name = tables.UnknownName(v.Center, v.SubCenter, v.TableVersion, v.Parameter)
	}
	v.Name = VariableName(v.Name, lt, pt)
	return v
}

// VariableName returns <param>_<level>, followed by _<stat><interval> for
// interval times.
func VariableName(param string, lt grib1.LevelType, pt grib1.ParamTime) string {
	var b strings.Builder
	b.WriteString(param)
	b.WriteByte('_')
	b.WriteString(lt.Abbrev)
	if pt.IsInterval {
		stat := pt.Stat.String()
		if stat == "" {
			stat = "Interval"
		}
		fmt.Fprintf(&b, "_%s%d", stat, pt.IntervalSize())
	}
	return b.String()
}

// uniqueNames suffixes the key to the names of variables whose names
// collide.
func uniqueNames(vars []*Variable) {
	count := map[string]int{}
	for _, v := range vars {
		count[v.Name]++
	}
	for _, v := range vars {
		if count[v.Name] > 1 {
			v.Name = fmt.Sprintf("%s_%08x", v.Name, uint32(v.Key))
		}
	}
}

// uniqueGroupNames suffixes the grid hash to the names of groups whose
// grids differ but whose names collide.
func uniqueGroupNames(groups []*Group) {
	count := map[string]int{}
	for _, g := range groups {
		count[g.Name]++
	}
	for _, g := range groups {
		if count[g.Name] > 1 {
			g.Name = fmt.Sprintf("%s-%08x", g.Name, uint32(foldGridHash(g.GDS.Hash())))
		}
	}
}

func sortVariables(vars []*Variable) {
	sort.SliceStable(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
}

func sortGroups(groups []*Group) {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
}

// Canonicalize sorts groups and variables by name.
func (c *Collection) Canonicalize() {
	for _, g := range c.Groups {
		sortVariables(g.Variables)
	}
	sortGroups(c.Groups)
}
