package gribindex

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/internal/compress"
	"github.com/sdifrance/gribcollection/rectilinear"
)

// Field numbers of the metadata message and its nested messages.
const (
	collName         = 1
	collCenter       = 2
	collSubCenter    = 3
	collTableVersion = 4
	collGenProcess   = 5
	collFile         = 6
	collGroup        = 7
	collCompression  = 8

	groupName       = 1
	groupGDS        = 2
	groupPredefined = 3
	groupTime       = 4
	groupVert       = 5
	groupEns        = 6
	groupVariable   = 7

	predefCenter = 1
	predefGrid   = 2

	timeRef        = 1
	timeUnit       = 2
	timeInterval   = 3
	timeValues     = 4
	timeDowngraded = 5

	vertLevelType = 1
	vertValues    = 2

	ensMembers = 1

	varKey          = 1
	varName         = 2
	varDescription  = 3
	varUnits        = 4
	varCenter       = 5
	varSubCenter    = 6
	varTableVersion = 7
	varGenProcess   = 8
	varParameter    = 9
	varLevelType    = 10
	varIsLayer      = 11
	varIsInterval   = 12
	varIntervalSize = 13
	varStat         = 14
	varTimeIdx      = 15
	varVertIdx      = 16
	varEnsIdx       = 17
	varBlobOffset   = 18
	varBlobLength   = 19
	varRecords      = 20
	varDuplicates   = 21
)

// enc appends fields to a message.
type enc struct{ b []byte }

func (e *enc) varint(num protowire.Number, v uint64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *enc) sint(num protowire.Number, v int64) {
	e.varint(num, protowire.EncodeZigZag(v))
}

func (e *enc) flag(num protowire.Number, v bool) {
	if v {
		e.varint(num, 1)
	}
}

func (e *enc) raw(num protowire.Number, v []byte) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *enc) str(num protowire.Number, v string) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *enc) message(num protowire.Number, build func(*enc)) {
	var m enc
	build(&m)
	e.raw(num, m.b)
}

func encodeMetadata(c *rectilinear.Collection, ct compress.Type) []byte {
	var e enc
	e.str(collName, c.Name)
	e.varint(collCenter, uint64(c.Center))
	e.varint(collSubCenter, uint64(c.SubCenter))
	e.varint(collTableVersion, uint64(c.TableVersion))
	e.varint(collGenProcess, uint64(c.GenProcess))
	for _, f := range c.Files {
		e.str(collFile, f)
	}
	for _, g := range c.Groups {
		e.message(collGroup, func(e *enc) { encodeGroup(e, g) })
	}
	e.varint(collCompression, uint64(ct))
	return e.b
}

func encodeGroup(e *enc, g *rectilinear.Group) {
	e.str(groupName, g.Name)
	if g.GDS.IsPredefined() {
		center, grid := g.GDS.Predefined()
		e.message(groupPredefined, func(e *enc) {
			e.varint(predefCenter, uint64(center))
			e.varint(predefGrid, uint64(grid))
		})
	} else {
		e.raw(groupGDS, g.GDS.Raw())
	}
	for _, tc := range g.TimeCoords {
		e.message(groupTime, func(e *enc) {
			e.sint(timeRef, tc.RefTime.Unix())
			e.varint(timeUnit, uint64(tc.Unit))
			e.flag(timeInterval, tc.IsInterval)
			var packed []byte
			for _, v := range tc.Values {
				packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v.Start)))
				packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v.End)))
			}
			e.raw(timeValues, packed)
			e.flag(timeDowngraded, tc.Downgraded)
		})
	}
	for _, vc := range g.VertCoords {
		e.message(groupVert, func(e *enc) {
			e.varint(vertLevelType, uint64(vc.LevelType))
			var packed []byte
			for _, l := range vc.Levels {
				packed = protowire.AppendFixed64(packed, math.Float64bits(l.Value1))
				packed = protowire.AppendFixed64(packed, math.Float64bits(l.Value2))
			}
			e.raw(vertValues, packed)
		})
	}
	for _, ec := range g.EnsCoords {
		e.message(groupEns, func(e *enc) {
			var packed []byte
			for _, m := range ec.Members {
				packed = protowire.AppendVarint(packed, uint64(m.Type))
				packed = protowire.AppendVarint(packed, uint64(m.Number))
			}
			e.raw(ensMembers, packed)
		})
	}
	for _, v := range g.Variables {
		e.message(groupVariable, func(e *enc) { encodeVariable(e, v) })
	}
}

func encodeVariable(e *enc, v *rectilinear.Variable) {
	e.varint(varKey, uint64(uint32(v.Key)))
	e.str(varName, v.Name)
	e.str(varDescription, v.Description)
	e.str(varUnits, v.Units)
	e.varint(varCenter, uint64(v.Center))
	e.varint(varSubCenter, uint64(v.SubCenter))
	e.varint(varTableVersion, uint64(v.TableVersion))
	e.varint(varGenProcess, uint64(v.GenProcess))
	e.varint(varParameter, uint64(v.Parameter))
	e.varint(varLevelType, uint64(v.LevelType))
	e.flag(varIsLayer, v.IsLayer)
	e.flag(varIsInterval, v.IsInterval)
	e.varint(varIntervalSize, uint64(v.IntervalSize))
	e.sint(varStat, int64(v.Stat))
	e.varint(varTimeIdx, uint64(v.TimeIdx))
	e.sint(varVertIdx, int64(v.VertIdx))
	e.sint(varEnsIdx, int64(v.EnsIdx))
	e.varint(varBlobOffset, uint64(v.BlobOffset))
	e.varint(varBlobLength, uint64(v.BlobLength))
	e.varint(varRecords, uint64(v.Records))
	e.varint(varDuplicates, uint64(v.Duplicates))
}

// field is one decoded field of a message.
type field struct {
	num   protowire.Number
	typ   protowire.Type
	v     uint64
	bytes []byte
}

// fields calls fn for every field of b. Fields of unknown types are
// skipped.
func fields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "metadata tag")
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.v, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "metadata field %d", num)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func decodeMetadata(b []byte) (*rectilinear.Collection, compress.Type, error) {
	c := &rectilinear.Collection{}
	ct := compress.None
	err := fields(b, func(f field) error {
		switch f.num {
		case collName:
			c.Name = string(f.bytes)
		case collCenter:
			c.Center = int(f.v)
		case collSubCenter:
			c.SubCenter = int(f.v)
		case collTableVersion:
			c.TableVersion = int(f.v)
		case collGenProcess:
			c.GenProcess = int(f.v)
		case collFile:
			c.Files = append(c.Files, string(f.bytes))
		case collGroup:
			g, err := decodeGroup(f.bytes)
			if err != nil {
				return err
			}
			c.Groups = append(c.Groups, g)
		case collCompression:
			ct = compress.Type(f.v)
		}
		return nil
	})
	return c, ct, err
}

func decodeGroup(b []byte) (*rectilinear.Group, error) {
	g := &rectilinear.Group{}
	err := fields(b, func(f field) error {
		switch f.num {
		case groupName:
			g.Name = string(f.bytes)
		case groupGDS:
			gds, err := grib1.ParseGridDefinition(f.bytes)
			if err != nil {
				return err
			}
			g.GDS = gds
		case groupPredefined:
			var center, grid int
			if err := fields(f.bytes, func(f field) error {
				switch f.num {
				case predefCenter:
					center = int(f.v)
				case predefGrid:
					grid = int(f.v)
				}
				return nil
			}); err != nil {
				return err
			}
			g.GDS = grib1.NewPredefinedGridDefinition(center, grid)
		case groupTime:
			tc, err := decodeTimeCoord(f.bytes)
			if err != nil {
				return err
			}
			g.TimeCoords = append(g.TimeCoords, tc)
		case groupVert:
			vc, err := decodeVertCoord(f.bytes)
			if err != nil {
				return err
			}
			g.VertCoords = append(g.VertCoords, vc)
		case groupEns:
			ec, err := decodeEnsCoord(f.bytes)
			if err != nil {
				return err
			}
			g.EnsCoords = append(g.EnsCoords, ec)
		case groupVariable:
			v, err := decodeVariable(f.bytes)
			if err != nil {
				return err
			}
			g.Variables = append(g.Variables, v)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "group %s", g.Name)
	}
	if g.GDS == nil {
		return nil, errors.Errorf("group %s has no grid", g.Name)
	}
	if g.Grid, err = g.GDS.EnsureDecoded(); err != nil {
		return nil, errors.Wrapf(err, "group %s", g.Name)
	}
	return g, nil
}

// packedVarints decodes a packed list of varints.
func packedVarints(b []byte) ([]uint64, error) {
	var out []uint64
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, v)
		b = b[n:]
	}
	return out, nil
}

func decodeTimeCoord(b []byte) (*rectilinear.TimeCoord, error) {
	tc := &rectilinear.TimeCoord{}
	err := fields(b, func(f field) error {
		switch f.num {
		case timeRef:
			tc.RefTime = time.Unix(protowire.DecodeZigZag(f.v), 0).UTC()
		case timeUnit:
			tc.Unit = grib1.UnitOfTime(f.v)
		case timeInterval:
			tc.IsInterval = f.v != 0
		case timeDowngraded:
			tc.Downgraded = f.v != 0
		case timeValues:
			vs, err := packedVarints(f.bytes)
			if err != nil {
				return err
			}
			if len(vs)%2 != 0 {
				return errors.New("odd number of time values")
			}
			for i := 0; i < len(vs); i += 2 {
				tc.Values = append(tc.Values, rectilinear.TimeValue{
					Start: int(protowire.DecodeZigZag(vs[i])),
					End:   int(protowire.DecodeZigZag(vs[i+1])),
				})
			}
		}
		return nil
	})
	return tc, errors.Wrap(err, "time coordinate")
}

func decodeVertCoord(b []byte) (*rectilinear.VertCoord, error) {
	vc := &rectilinear.VertCoord{}
	err := fields(b, func(f field) error {
		switch f.num {
		case vertLevelType:
			vc.LevelType = int(f.v)
		case vertValues:
			p := f.bytes
			if len(p)%16 != 0 {
				return errors.New("truncated levels")
			}
			for len(p) > 0 {
				v1, _ := protowire.ConsumeFixed64(p)
				v2, _ := protowire.ConsumeFixed64(p[8:])
				vc.Levels = append(vc.Levels, rectilinear.Level{
					Value1: math.Float64frombits(v1),
					Value2: math.Float64frombits(v2),
				})
				p = p[16:]
			}
		}
		return nil
	})
	return vc, errors.Wrap(err, "vertical coordinate")
}

func decodeEnsCoord(b []byte) (*rectilinear.EnsCoord, error) {
	ec := &rectilinear.EnsCoord{}
	err := fields(b, func(f field) error {
		if f.num != ensMembers {
			return nil
		}
		vs, err := packedVarints(f.bytes)
		if err != nil {
			return err
		}
		if len(vs)%2 != 0 {
			return errors.New("odd number of ensemble values")
		}
		for i := 0; i < len(vs); i += 2 {
			ec.Members = append(ec.Members, grib1.EnsembleMember{Type: int(vs[i]), Number: int(vs[i+1])})
		}
		return nil
	})
	return ec, errors.Wrap(err, "ensemble coordinate")
}

func decodeVariable(b []byte) (*rectilinear.Variable, error) {
	v := &rectilinear.Variable{}
	err := fields(b, func(f field) error {
		switch f.num {
		case varKey:
			v.Key = int32(uint32(f.v))
		case varName:
			v.Name = string(f.bytes)
		case varDescription:
			v.Description = string(f.bytes)
		case varUnits:
			v.Units = string(f.bytes)
		case varCenter:
			v.Center = int(f.v)
		case varSubCenter:
			v.SubCenter = int(f.v)
		case varTableVersion:
			v.TableVersion = int(f.v)
		case varGenProcess:
			v.GenProcess = int(f.v)
		case varParameter:
			v.Parameter = int(f.v)
		case varLevelType:
			v.LevelType = int(f.v)
		case varIsLayer:
			v.IsLayer = f.v != 0
		case varIsInterval:
			v.IsInterval = f.v != 0
		case varIntervalSize:
			v.IntervalSize = int(f.v)
		case varStat:
			v.Stat = grib1.StatType(protowire.DecodeZigZag(f.v))
		case varTimeIdx:
			v.TimeIdx = int(f.v)
		case varVertIdx:
			v.VertIdx = int(protowire.DecodeZigZag(f.v))
		case varEnsIdx:
			v.EnsIdx = int(protowire.DecodeZigZag(f.v))
		case varBlobOffset:
			v.BlobOffset = int64(f.v)
		case varBlobLength:
			v.BlobLength = int64(f.v)
		case varRecords:
			v.Records = int(f.v)
		case varDuplicates:
			v.Duplicates = int(f.v)
		}
		return nil
	})
	return v, errors.Wrapf(err, "variable %s", v.Name)
}
