package transfermarkt

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const rosterPage = `<html><body>
<table class="items">
<thead><tr><th>#</th><th>Player</th><th>Date of birth/Age</th><th>Nat.</th><th>Market value</th></tr></thead>
<tbody>
<tr class="odd">
  <td class="zentriert rueckennummer">1</td>
  <td class="posrela"><table class="inline-table">
    <tr><td rowspan="2"><img src="x.png"></td><td class="hauptlink"><a href="/yassine-bounou/profil/spieler/1">Yassine Bounou</a></td></tr>
    <tr><td>Goalkeeper</td></tr>
  </table></td>
  <td class="zentriert">Apr 5, 1991 (33)</td>
  <td class="zentriert"><img title="Morocco"></td>
  <td class="rechts hauptlink"><a href="/yassine-bounou/marktwertverlauf/spieler/1">€3.00m</a></td>
</tr>
<tr class="even">
  <td class="zentriert rueckennummer">5</td>
  <td class="posrela"><table class="inline-table">
    <tr><td class="hauptlink">  Nayef   Aguerd </td></tr>
    <tr><td>Centre-Back</td></tr>
  </table></td>
  <td class="zentriert">28</td>
  <td class="zentriert"><img title="Morocco"></td>
</tr>
<tr class="odd">
  <td class="zentriert">?</td>
  <td>broken row</td>
</tr>
<tr class="even">
  <td class="zentriert rueckennummer">10</td>
  <td class="hauptlink"><a href="https://www.transfermarkt.com/brahim-diaz/profil/spieler/3">Brahim Díaz</a></td>
  <td class="zentriert">Aug 3, 1999 (25)</td>
  <td class="zentriert"><img title="Morocco"></td>
  <td class="rechts hauptlink">€50.00m</td>
</tr>
</tbody>
</table>
<table class="items"><tbody><tr class="odd"><td class="hauptlink">Ignored</td></tr></tbody></table>
</body></html>`

const bounouProfile = `<html><body>
<div class="info-table">
  <span class="info-table__content info-table__content--regular">Height:</span>
  <span class="info-table__content info-table__content--bold">1,95&nbsp;m</span>
  <span class="info-table__content info-table__content--regular">Foot:</span>
  <span class="info-table__content info-table__content--bold">left</span>
</div>
<table class="items"><tbody>
  <tr class="odd"><td class="hauptlink">Morocco U23</td><td class="zentriert">-</td></tr>
  <tr class="even"><td class="hauptlink">Morocco</td><td class="zentriert">13</td><td class="zentriert">Jun 13, 2013</td></tr>
</tbody></table>
</body></html>`

const diazProfile = `<html><body>
<div class="data-header"><span class="data-header__label">Height:</span> <span class="data-header__content">1,70 m</span></div>
<div class="details"><span>Foot</span><span>right</span></div>
<table class="items"><tbody>
  <tr class="odd"><td>Spain U21</td><td class="zentriert">01.09.2017</td></tr>
  <tr class="even"><td>Maroc</td><td class="zentriert">22.03.2024</td></tr>
</tbody></table>
</body></html>`

const performancePage = `<html><body>
<table class="items">
<thead><tr>
  <th>#</th><th colspan="2">Player</th>
  <th><span title="Goals">G</span></th>
  <th><span title="Assists">A</span></th>
  <th title="Minutes played">Min</th>
</tr></thead>
<tbody>
<tr class="odd">
  <td>19</td><td><img src="p.png"></td><td class="hauptlink"><a href="/p/19">Youssef En-Nesyri</a></td>
  <td>12</td><td>-</td><td>1.234'</td>
</tr>
<tr class="even">
  <td>1</td><td><img src="p.png"></td><td class="hauptlink"><a href="/p/1">Yassine Bounou</a></td>
  <td>-</td><td>-</td><td>540'</td>
</tr>
</tbody>
</table>
</body></html>`

// fakeFetcher serves canned pages by URL
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("unexpected status 404 from %s", url)
	}
	return page, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func mustParse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := ParseHTML(page)
	require.NoError(t, err)
	return doc
}
