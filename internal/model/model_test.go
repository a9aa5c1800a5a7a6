package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestEntryKindValid(t *testing.T) {
    assert.True(t, KindGeneral.Valid())
    assert.True(t, KindVIP.Valid())
    assert.False(t, EntryKind("Mesa VIP").Valid())
    assert.False(t, EntryKind("").Valid())
}

func TestDefaultReferralDirectory(t *testing.T) {
    dir := DefaultReferralDirectory()
    assert.Equal(t, []string{"general", "matias", "sofia"}, dir.Keys())
    assert.Equal(t, "5491111111111", dir.Lookup("matias").Contact)
    assert.Equal(t, "Soporte General", dir.Lookup("nobody").Name)
    assert.True(t, dir.Has("sofia"))
    assert.False(t, dir.Has("Sofia"))
}

func TestParseReferralDirectory(t *testing.T) {
    dir, err := ParseReferralDirectory(" Lucia=Lucia (RRPP)|5491144444444 ; ;tomi=Tomi|5491155555555")
    require.NoError(t, err)
    assert.Equal(t, ReferralPartner{Name: "Lucia (RRPP)", Contact: "5491144444444"}, dir["lucia"])
    assert.Equal(t, "Tomi", dir.Lookup("tomi").Name)
    // The fallback entry is always there.
    assert.Equal(t, "Soporte General", dir.Lookup(DefaultReferralKey).Name)

    custom, err := ParseReferralDirectory("general=Puerta|5490000000000")
    require.NoError(t, err)
    assert.Equal(t, "Puerta", custom.Lookup("unknown").Name)

    for _, bad := range []string{"lucia", "lucia=NoPhone", "=X|1", "two words=X|1"} {
        _, err := ParseReferralDirectory(bad)
        assert.Error(t, err, bad)
    }
}
