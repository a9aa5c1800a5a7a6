package model

import (
    "fmt"
    "sort"
    "strings"
)

// DefaultReferralKey is the fallback partner used when a sender has no
// sticky attribution.  It is always present in a ReferralDirectory.
const DefaultReferralKey = "general"

// ReferralPartner is an affiliate (RRPP) whose guests are tracked
// separately from organic traffic.
type ReferralPartner struct {
    Name    string // display name shown to guests
    Contact string // chat identity (phone number) used for the contact link
}

// ReferralDirectory maps lower-case referral keys to partners.  It is
// built once at startup and read-only afterwards.
type ReferralDirectory map[string]ReferralPartner

// DefaultReferralDirectory returns the built-in partner list.
func DefaultReferralDirectory() ReferralDirectory {
    return ReferralDirectory{
        "matias":           {Name: "Matias (RRPP)", Contact: "5491111111111"},
        "sofia":            {Name: "Sofia (RRPP)", Contact: "5491122222222"},
        DefaultReferralKey: {Name: "Soporte General", Contact: "5491133333333"},
    }
}

// ParseReferralDirectory parses "key=Name|phone;key2=Name|phone".  Keys
// are lower-cased.  The default entry from DefaultReferralDirectory is
// added when the input does not define one.
func ParseReferralDirectory(raw string) (ReferralDirectory, error) {
    dir := ReferralDirectory{}
    for _, item := range strings.Split(raw, ";") {
        item = strings.TrimSpace(item)
        if item == "" {
            continue
        }
        key, rest, ok := strings.Cut(item, "=")
        if !ok {
            return nil, fmt.Errorf("referral entry %q: missing '='", item)
        }
        name, contact, ok := strings.Cut(rest, "|")
        key = strings.ToLower(strings.TrimSpace(key))
        if !ok || key == "" || strings.ContainsAny(key, " \t") {
            return nil, fmt.Errorf("referral entry %q: want key=Name|phone", item)
        }
        dir[key] = ReferralPartner{Name: strings.TrimSpace(name), Contact: strings.TrimSpace(contact)}
    }
    if _, ok := dir[DefaultReferralKey]; !ok {
        dir[DefaultReferralKey] = DefaultReferralDirectory()[DefaultReferralKey]
    }
    return dir, nil
}

// Lookup returns the partner for key, falling back to the default entry.
func (d ReferralDirectory) Lookup(key string) ReferralPartner {
    if p, ok := d[key]; ok {
        return p
    }
    return d[DefaultReferralKey]
}

// Has reports whether key names a partner in the directory.
func (d ReferralDirectory) Has(key string) bool {
    _, ok := d[key]
    return ok
}

// Keys returns the directory keys in sorted order.
func (d ReferralDirectory) Keys() []string {
    keys := make([]string, 0, len(d))
    for k := range d {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    return keys
}
