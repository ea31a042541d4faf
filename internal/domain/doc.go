// Package domain models the Cascadia Marine Trail marker data and its GeoJSON form.
//
// # Data Source
//
// Markers come from a single XML document published alongside the trail map
// (historically "resources/markers.xml"). Every marker is an empty element whose
// attributes carry all of the data:
//
//	<markers>
//	  <marker typ="site" name="Cypress Head" lat="48.5707" lng="-122.6675"
//	          stedetails="&lt;p&gt;Details &lt;a href=&quot;?page_id=312&quot;&gt;more&lt;/a&gt;&lt;/p&gt;"/>
//	</markers>
//
// # Attribute Conventions
//
//	typ         layer discriminator: "site" (campsites) or "access" (boat ramps).
//	            Other values are kept and rendered with the fallback style.
//	name        display name, used as the popup heading.
//	lat, lng    WGS-84 degrees as decimal strings.
//	stedetails  HTML fragment. Links to trail pages are relative query strings
//	            ("?page_id=<id>") that only resolve on the publisher's site.
//
// Any other attribute passes through to the feature properties unchanged.
//
// # Link Rewriting
//
// Every literal "?page_id=" in stedetails is replaced with the absolute page
// prefix (see [DefaultLinkBaseURL]) before the text is placed in the popup.
// The replacement is global and case-sensitive. The stedetails property itself
// keeps the original text; only tooltipContent carries the rewritten links.
//
// # Coordinates
//
// Geometry coordinates follow GeoJSON order, [longitude, latitude]. The source
// supplies lat and lng separately so nothing is ever transposed. Bounds use the
// Leaflet convention instead: [[south, west], [north, east]].
//
// # Invalid Records
//
// A record without typ or name, or with a coordinate that is not a finite number
// in range, is rejected with a [DataError]. Callers skip such records and keep
// going; one bad marker never blocks the other layers.
package domain
