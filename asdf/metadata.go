package asdf

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/robert-malhotra/go-asdf/event"
	"github.com/robert-malhotra/go-asdf/hdf5"
	"github.com/robert-malhotra/go-asdf/inventory"
	"github.com/robert-malhotra/go-asdf/provenance"
)

func (ds *DataSet) writeCatalog(cat *event.Catalog) error {
	data, err := event.Marshal(cat)
	if err != nil {
		return err
	}
	if err := ds.replaceBytes(ds.file.Root(), quakemlDataset, data); err != nil {
		return Error.Wrap(fmt.Errorf("%s: %w", quakemlDataset, err))
	}
	return nil
}

// Events returns the stored event catalog. A file without QuakeML yields an
// empty catalog.
func (ds *DataSet) Events() (*event.Catalog, error) {
	root := ds.file.Root()
	if !root.Has(quakemlDataset) {
		return &event.Catalog{}, nil
	}
	data, err := readBytes(root, quakemlDataset)
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("%s: %w", quakemlDataset, err))
	}
	if len(data) == 0 {
		return &event.Catalog{}, nil
	}
	return event.Unmarshal(data)
}

// AddQuakeML adds the events of cat to the stored catalog. Stored events
// with the same resource id are replaced.
func (ds *DataSet) AddQuakeML(cat *event.Catalog) error {
	stored, err := ds.Events()
	if err != nil {
		return err
	}

	index := make(map[string]int, len(stored.Events))
	for i, ev := range stored.Events {
		index[ev.ID] = i
	}
	for _, ev := range cat.Events {
		if i, ok := index[ev.ID]; ok {
			stored.Events[i] = ev
			continue
		}
		index[ev.ID] = len(stored.Events)
		stored.Events = append(stored.Events, ev)
	}

	if err := ds.writeCatalog(stored); err != nil {
		return err
	}
	ds.log.Debug("quakeml stored", zap.Int("events", len(stored.Events)))
	return nil
}

// AddStationXML merges inv into the StationXML of each station it
// describes.
func (ds *DataSet) AddStationXML(inv *inventory.Inventory) error {
	wf, err := ds.waveforms()
	if err != nil {
		return Error.Wrap(err)
	}

	for _, part := range inv.SplitStations() {
		key := norm.NFKC.String(part.Key())
		g, err := wf.RequireGroup(key)
		if err != nil {
			return Error.Wrap(fmt.Errorf("station %s: %w", key, err))
		}

		merged := part.Inventory
		if g.Has(stationXMLName) {
			existing, err := ds.StationXML(key)
			if err != nil {
				return err
			}
			merged = inventory.Merge(existing, part.Inventory)
		}

		data, err := inventory.Marshal(merged)
		if err != nil {
			return err
		}
		if err := ds.replaceBytes(g, stationXMLName, data); err != nil {
			return Error.Wrap(fmt.Errorf("station %s: %w", key, err))
		}
		ds.log.Debug("inventory merged", zap.String("station", key), zap.Int("channels", len(merged.ChannelStats())))
	}
	return nil
}

// StationXML returns the inventory stored for a station.
func (ds *DataSet) StationXML(station string) (*inventory.Inventory, error) {
	g, err := ds.station(station)
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("station %s: %w", station, err))
	}
	data, err := readBytes(g, stationXMLName)
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("station %s: %w", station, err))
	}
	return inventory.Unmarshal(data)
}

func (ds *DataSet) provenance() (*hdf5.Group, error) {
	return ds.file.Root().OpenGroup(provenanceGroup)
}

// AddProvenanceDocument stores doc under name, replacing any document of
// the same name.
func (ds *DataSet) AddProvenanceDocument(doc *provenance.Document, name string) error {
	name, err := ValidateTag(name)
	if err != nil {
		return err
	}
	data, err := provenance.Marshal(doc)
	if err != nil {
		return err
	}

	g, err := ds.provenance()
	if err != nil {
		return Error.Wrap(err)
	}
	if err := ds.replaceBytes(g, name, data); err != nil {
		return Error.Wrap(fmt.Errorf("provenance %s: %w", name, err))
	}
	ds.log.Debug("provenance stored", zap.String("name", name))
	return nil
}

// ProvenanceNames lists the stored provenance documents.
func (ds *DataSet) ProvenanceNames() ([]string, error) {
	if !ds.file.Root().Has(provenanceGroup) {
		return nil, nil
	}
	g, err := ds.provenance()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	names, err := g.Members()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return names, nil
}

// HasProvenance reports whether a provenance document named name exists.
func (ds *DataSet) HasProvenance(name string) bool {
	g, err := ds.provenance()
	if err != nil {
		return false
	}
	return g.Has(norm.NFKC.String(name))
}

// Provenance returns the provenance document stored under name.
func (ds *DataSet) Provenance(name string) (*provenance.Document, error) {
	g, err := ds.provenance()
	if err != nil {
		return nil, Error.Wrap(err)
	}
	data, err := readBytes(g, norm.NFKC.String(name))
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("provenance %s: %w", name, err))
	}
	return provenance.Unmarshal(data)
}
