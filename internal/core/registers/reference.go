package registers

import "strings"

// EEE category codes per Schedule I of the E-Waste (Management) Rules, 2022.
const (
	CategoryIT       = "ITEW"  // Information technology and telecommunication equipment
	CategoryConsumer = "CEEW"  // Consumer electrical and electronics and photovoltaic panels
	CategoryLarge    = "LSEEW" // Large and small electrical and electronic equipment
	CategoryTools    = "EETW"  // Electrical and electronic tools
	CategoryToys     = "TLSEW" // Toys, leisure and sports equipment
	CategoryMedical  = "MDW"   // Medical devices
	CategoryLab      = "LIW"   // Laboratory instruments
)

// eeeItem is one line of Schedule I.
type eeeItem struct {
	Code string
	Name string
	Life float64 // Average life in years
}

// eeeItems lists Schedule I items by category.
var eeeItems = map[string][]eeeItem{
	CategoryIT: {
		{"ITEW1", "Centralised data processing: Mainframes, Minicomputers", 10},
		{"ITEW2", "Personal Computing: Personal Computers (CPU with input and output devices)", 6},
		{"ITEW3", "Personal Computing: Laptop Computers (CPU with input and output devices)", 5},
		{"ITEW4", "Personal Computing: Notebook Computers", 5},
		{"ITEW5", "Personal Computing: Notepad Computers", 5},
		{"ITEW6", "Printers including cartridges", 10},
		{"ITEW7", "Copying equipment", 8},
		{"ITEW8", "Electrical and electronic typewriters", 5},
		{"ITEW9", "User terminals and systems", 6},
		{"ITEW10", "Facsimile", 10},
		{"ITEW12", "Telephones", 9},
		{"ITEW13", "Pay telephones", 9},
		{"ITEW14", "Cordless telephones", 9},
		{"ITEW15", "Cellular telephones: feature phones and smart phones", 7},
		{"ITEW16", "Answering systems", 5},
		{"ITEW17", "Tablets, I-Pads", 5},
		{"ITEW18", "Scanners", 10},
	},
	CategoryConsumer: {
		{"CEEW1", "Television sets (including sets based on LCD and LED technology)", 9},
		{"CEEW2", "Refrigerator", 10},
		{"CEEW3", "Washing Machine", 9},
		{"CEEW4", "Air-conditioners excluding centralised air conditioning plants", 10},
		{"CEEW5", "Fluorescent and other Mercury containing lamps", 2},
		{"CEEW6", "Screens, Electronic Photo frames, Electronic Display Panels, Monitors", 9},
		{"CEEW7", "Radio sets", 8},
		{"CEEW8", "Set top Boxes", 5},
		{"CEEW9", "Video Cameras", 5},
		{"CEEW10", "Video recorders", 5},
		{"CEEW11", "Hi-Fi recorders", 5},
		{"CEEW12", "Audio amplifiers", 5},
		{"CEEW14", "Solar Panels/cells, solar photovoltaic panels/cells/modules", 25},
		{"CEEW15", "Luminaires for fluorescent lamps", 10},
		{"CEEW16", "Induction cook tops", 8},
	},
	CategoryLarge: {
		{"LSEEW1", "Large cooling appliances", 10},
		{"LSEEW2", "Freezers", 10},
		{"LSEEW3", "Microwaves", 8},
		{"LSEEW4", "Electric fans", 10},
		{"LSEEW5", "Electric irons", 8},
		{"LSEEW6", "Vacuum cleaners", 8},
		{"LSEEW8", "Water heaters and geysers", 10},
		{"LSEEW10", "Electric kettles", 5},
		{"LSEEW13", "Mixer grinders and food processors", 8},
	},
	CategoryTools: {
		{"EETW1", "Drills", 10},
		{"EETW2", "Saws", 10},
		{"EETW3", "Sewing machines", 10},
		{"EETW5", "Electric welding tools", 10},
		{"EETW8", "Tools for mowing or other gardening activities", 10},
	},
	CategoryToys: {
		{"TLSEW1", "Electrical trains or car racing sets", 3},
		{"TLSEW2", "Hand-held video game consoles", 5},
		{"TLSEW3", "Video games", 5},
		{"TLSEW4", "Computers for biking, diving, running, rowing", 5},
		{"TLSEW5", "Sports equipment with electric or electronic components", 5},
	},
	CategoryMedical: {
		{"MDW1", "Radiotherapy equipment and accessories", 10},
		{"MDW2", "Cardiology equipment and accessories", 10},
		{"MDW3", "Dialysis equipment and accessories", 10},
		{"MDW5", "Nuclear medicine equipment and accessories", 10},
		{"MDW11", "Patient monitoring equipment", 10},
	},
	CategoryLab: {
		{"LIW1", "Gas analyzers", 10},
		{"LIW2", "Equipment having electrical and electronic components", 10},
		{"LIW3", "Monitoring and control instruments", 10},
	},
}

// Categories returns the EEE category codes in schedule order.
func Categories() []string {
	return []string{CategoryIT, CategoryConsumer, CategoryLarge, CategoryTools, CategoryToys, CategoryMedical, CategoryLab}
}

// Items returns the Schedule I item names of a category.
func Items(category string) []string {
	items := eeeItems[category]
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}

// itemTable builds a category -> item name -> value lookup table.
func itemTable(value func(eeeItem) string) map[string]map[string]string {
	table := make(map[string]map[string]string, len(eeeItems))
	for category, items := range eeeItems {
		byName := make(map[string]string, len(items))
		for _, it := range items {
			byName[it.Name] = value(it)
		}
		table[category] = byName
	}
	return table
}

// RoHS maximum concentration values, percent by weight in homogeneous
// materials, per Schedule II of the E-Waste (Management) Rules, 2022.
var rohsLimits = []struct {
	Substance string
	Limit     string
}{
	{"Lead (Pb)", "0.1"},
	{"Mercury (Hg)", "0.1"},
	{"Cadmium (Cd)", "0.01"},
	{"Hexavalent Chromium (Cr6+)", "0.1"},
	{"Polybrominated Biphenyls (PBB)", "0.1"},
	{"Polybrominated Diphenyl Ethers (PBDE)", "0.1"},
}

// Substances returns the restricted substances in schedule order.
func Substances() []string {
	out := make([]string, len(rohsLimits))
	for i, l := range rohsLimits {
		out[i] = l.Substance
	}
	return out
}

func limitTable() map[string]map[string]string {
	limits := make(map[string]string, len(rohsLimits))
	for _, l := range rohsLimits {
		limits[l.Substance] = l.Limit
	}
	return map[string]map[string]string{"": limits}
}

// Waste types covered by the storage audit, with the longest permitted
// storage before disposal, in years.
var storagePeriods = []struct {
	WasteType string
	Years     string
}{
	{"E-Waste", "0.5"},
	{"Battery Waste", "0.5"},
	{"Plastic Waste", "0.5"},
	{"Hazardous Waste", "0.25"},
	{"Used Oil", "0.25"},
}

// WasteTypes returns the waste types accepted by the storage audit.
func WasteTypes() []string {
	out := make([]string, len(storagePeriods))
	for i, p := range storagePeriods {
		out[i] = p.WasteType
	}
	return out
}

func storageTable() map[string]map[string]string {
	periods := make(map[string]string, len(storagePeriods))
	for _, p := range storagePeriods {
		periods[p.WasteType] = p.Years
	}
	return map[string]map[string]string{"": periods}
}

func categoryNameTable() map[string]map[string]string {
	names := make(map[string]string)
	for _, c := range Categories() {
		names[c] = categoryLabel(c)
	}
	return map[string]map[string]string{"": names}
}

// categoryLabel returns the schedule heading of a category code.
func categoryLabel(code string) string {
	switch strings.ToUpper(code) {
	case CategoryIT:
		return "Information technology and telecommunication equipment"
	case CategoryConsumer:
		return "Consumer electrical and electronics and Photovoltaic Panels"
	case CategoryLarge:
		return "Large and Small Electrical and Electronic Equipment"
	case CategoryTools:
		return "Electrical and Electronic Tools"
	case CategoryToys:
		return "Toys, Leisure and Sports Equipment"
	case CategoryMedical:
		return "Medical Devices"
	case CategoryLab:
		return "Laboratory Instruments"
	default:
		return ""
	}
}
