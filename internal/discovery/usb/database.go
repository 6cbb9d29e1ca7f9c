// internal/discovery/usb/database.go
package usb

import (
	"strconv"
	"strings"
)

// AdapterKind tells how a USB device presents its serial port
type AdapterKind string

const (
	KindBridge  AdapterKind = "usb-uart-bridge"
	KindCDC     AdapterKind = "cdc-acm"
	KindPrinter AdapterKind = "printer"
)

// AdapterDatabase contains known USB serial devices for identification
type AdapterDatabase struct {
	vendors map[uint16]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[uint16]*ProductInfo
}

// ProductInfo contains product-specific information
type ProductInfo struct {
	Model string
	Kind  AdapterKind
}

// Identification is the result of a lookup. Model and Kind are empty when
// only the vendor is known.
type Identification struct {
	Vendor string      `json:"vendor"`
	Model  string      `json:"model,omitempty"`
	Kind   AdapterKind `json:"kind,omitempty"`
}

// NewAdapterDatabase creates and initializes the adapter database
func NewAdapterDatabase() *AdapterDatabase {
	db := &AdapterDatabase{
		vendors: make(map[uint16]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

func (db *AdapterDatabase) initializeDatabase() {
	db.AddVendor(0x0403, "Future Technology Devices International")
	db.AddProduct(0x0403, 0x6001, &ProductInfo{Model: "FT232R", Kind: KindBridge})
	db.AddProduct(0x0403, 0x6010, &ProductInfo{Model: "FT2232", Kind: KindBridge})
	db.AddProduct(0x0403, 0x6011, &ProductInfo{Model: "FT4232H", Kind: KindBridge})
	db.AddProduct(0x0403, 0x6014, &ProductInfo{Model: "FT232H", Kind: KindBridge})
	db.AddProduct(0x0403, 0x6015, &ProductInfo{Model: "FT231X", Kind: KindBridge})

	db.AddVendor(0x067B, "Prolific Technology")
	db.AddProduct(0x067B, 0x2303, &ProductInfo{Model: "PL2303", Kind: KindBridge})
	db.AddProduct(0x067B, 0x23A3, &ProductInfo{Model: "PL2303GC", Kind: KindBridge})

	db.AddVendor(0x10C4, "Silicon Labs")
	db.AddProduct(0x10C4, 0xEA60, &ProductInfo{Model: "CP210x", Kind: KindBridge})
	db.AddProduct(0x10C4, 0xEA70, &ProductInfo{Model: "CP2105", Kind: KindBridge})
	db.AddProduct(0x10C4, 0xEA71, &ProductInfo{Model: "CP2108", Kind: KindBridge})

	db.AddVendor(0x1A86, "WCH")
	db.AddProduct(0x1A86, 0x7523, &ProductInfo{Model: "CH340", Kind: KindBridge})
	db.AddProduct(0x1A86, 0x55D4, &ProductInfo{Model: "CH9102", Kind: KindBridge})

	db.AddVendor(0x2341, "Arduino")
	db.AddProduct(0x2341, 0x0043, &ProductInfo{Model: "Uno", Kind: KindCDC})
	db.AddProduct(0x2341, 0x0042, &ProductInfo{Model: "Mega 2560", Kind: KindCDC})
	db.AddProduct(0x2341, 0x8036, &ProductInfo{Model: "Leonardo", Kind: KindCDC})

	db.AddVendor(0x0483, "STMicroelectronics")
	db.AddProduct(0x0483, 0x5740, &ProductInfo{Model: "Virtual COM Port", Kind: KindCDC})

	db.AddVendor(0x04D8, "Microchip Technology")
	db.AddProduct(0x04D8, 0x000A, &ProductInfo{Model: "CDC RS-232 Emulation", Kind: KindCDC})

	// Receipt printers that expose a virtual serial port
	db.AddVendor(0x04B8, "Seiko Epson Corporation")
	db.AddProduct(0x04B8, 0x0202, &ProductInfo{Model: "TM-T88IV", Kind: KindPrinter})
	db.AddProduct(0x04B8, 0x0203, &ProductInfo{Model: "TM-T88V", Kind: KindPrinter})
}

// Identify looks up the hex vendor and product ids reported by the port
// enumerator. Ids are matched case-insensitively, with or without 0x.
func (db *AdapterDatabase) Identify(vid, pid string) (*Identification, bool) {
	vendorID, ok := parseID(vid)
	if !ok {
		return nil, false
	}

	vendor, exists := db.vendors[vendorID]
	if !exists {
		return nil, false
	}

	id := &Identification{Vendor: vendor.Name}
	if productID, ok := parseID(pid); ok {
		if product := vendor.products[productID]; product != nil {
			id.Model = product.Model
			id.Kind = product.Kind
		}
	}
	return id, true
}

// AddVendor adds a new vendor to the database
func (db *AdapterDatabase) AddVendor(vendorID uint16, name string) {
	if _, exists := db.vendors[vendorID]; exists {
		db.vendors[vendorID].Name = name
		return
	}
	db.vendors[vendorID] = &VendorInfo{
		Name:     name,
		products: make(map[uint16]*ProductInfo),
	}
}

// AddProduct adds a new product to an existing vendor
func (db *AdapterDatabase) AddProduct(vendorID, productID uint16, info *ProductInfo) {
	if vendor, exists := db.vendors[vendorID]; exists {
		vendor.products[productID] = info
	}
}

func parseID(value string) (uint16, bool) {
	value = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "0x")
	if value == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(value, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(id), true
}
