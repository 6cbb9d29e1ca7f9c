package usb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapterDatabase_Identify(t *testing.T) {
	db := NewAdapterDatabase()

	id, ok := db.Identify("0403", "6001")
	require.True(t, ok)
	assert.Equal(t, &Identification{
		Vendor: "Future Technology Devices International",
		Model:  "FT232R",
		Kind:   KindBridge,
	}, id)

	id, ok = db.Identify("10c4", "ea60")
	require.True(t, ok)
	assert.Equal(t, "CP210x", id.Model)

	id, ok = db.Identify("0x1A86", "0x7523")
	require.True(t, ok)
	assert.Equal(t, "CH340", id.Model)
}

func TestAdapterDatabase_VendorOnly(t *testing.T) {
	db := NewAdapterDatabase()

	id, ok := db.Identify("2341", "ffff")
	require.True(t, ok)
	assert.Equal(t, "Arduino", id.Vendor)
	assert.Empty(t, id.Model)
	assert.Empty(t, id.Kind)
}

func TestAdapterDatabase_Unknown(t *testing.T) {
	db := NewAdapterDatabase()

	_, ok := db.Identify("dead", "beef")
	assert.False(t, ok)

	_, ok = db.Identify("", "")
	assert.False(t, ok)

	_, ok = db.Identify("not-hex", "6001")
	assert.False(t, ok)
}

func TestAdapterDatabase_AddProduct(t *testing.T) {
	db := NewAdapterDatabase()

	db.AddProduct(0xBEEF, 0x0001, &ProductInfo{Model: "orphan"})
	_, ok := db.Identify("beef", "0001")
	assert.False(t, ok)

	db.AddVendor(0xBEEF, "Test Vendor")
	db.AddProduct(0xBEEF, 0x0001, &ProductInfo{Model: "Probe", Kind: KindCDC})

	id, ok := db.Identify("BEEF", "0001")
	require.True(t, ok)
	assert.Equal(t, "Probe", id.Model)
	assert.Equal(t, KindCDC, id.Kind)
}
