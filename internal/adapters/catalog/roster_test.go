package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	catalog "github.com/caliberhq/caliper/internal/adapters/catalog"
	. "github.com/smartystreets/goconvey/convey"
)

const rosterYAML = `- email: ana@example.com
  name: Ana Flores
  role: Agent
  department: Support
  designation: Senior
  team: Tier 1
  supervisor: Maya Patel
  quality_mentor: Leo Chan
  channel: chat
- email: ben@example.com
  name: Ben Ortiz
  role: Agent
  team: Tier 2
`

func TestLoadRoster(t *testing.T) {
	Convey("Given a valid roster file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "roster.yaml")
		So(os.WriteFile(path, []byte(rosterYAML), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			people, err := catalog.LoadRoster(path)

			Convey("Then every entry should be returned", func() {
				So(err, ShouldBeNil)
				So(len(people), ShouldEqual, 2)

				So(people[0].Email, ShouldEqual, "ana@example.com")
				So(people[0].Name, ShouldEqual, "Ana Flores")
				So(people[0].Team, ShouldEqual, "Tier 1")
				So(people[0].Supervisor, ShouldEqual, "Maya Patel")
				So(people[0].QualityMentor, ShouldEqual, "Leo Chan")

				So(people[1].Email, ShouldEqual, "ben@example.com")
				So(people[1].Designation, ShouldEqual, "")
			})
		})
	})

	Convey("Given a roster entry without an email", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "roster.yaml")
		bad := `- name: No Email
  team: Tier 1
`
		So(os.WriteFile(path, []byte(bad), 0o600), ShouldBeNil)

		Convey("Then loading should fail validation", func() {
			_, err := catalog.LoadRoster(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "invalid roster file")
		})
	})

	Convey("Given a roster entry with a malformed email", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "roster.yaml")
		bad := `- email: not-an-address
  name: Bad Email
`
		So(os.WriteFile(path, []byte(bad), 0o600), ShouldBeNil)

		Convey("Then loading should fail validation", func() {
			_, err := catalog.LoadRoster(path)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a missing roster file", t, func() {
		_, err := catalog.LoadRoster(filepath.Join(t.TempDir(), "absent.yaml"))

		Convey("Then loading should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
